package patch

// parseBinary parses a "GIT binary patch" body: the forward side, a blank
// line, the reverse side and a closing blank line.
func (p *parser) parseBinary() error {
	cur := p.cur
	if !cur.AdvanceExpected("GIT binary patch") || !cur.AdvanceNL() {
		return p.errorf("corrupt git binary header")
	}

	newFile, err := p.parseBinarySide()
	if err != nil {
		return err
	}
	if !cur.AdvanceNL() {
		return p.errorf("corrupt git binary separator")
	}

	oldFile, err := p.parseBinarySide()
	if err != nil {
		return err
	}
	if !cur.AdvanceNL() {
		return p.errorf("corrupt git binary patch separator")
	}

	p.patch.BinaryData = BinaryPatch{
		ContainsData: true,
		NewFile:      newFile,
		OldFile:      oldFile,
	}
	p.patch.Binary = true
	return nil
}

// parseBinarySide parses "literal N" or "delta N" followed by base85 data
// lines. It stops, without consuming it, at the blank line ending the side.
func (p *parser) parseBinarySide() (BinaryFile, error) {
	cur := p.cur
	var f BinaryFile

	switch {
	case cur.AdvanceExpected("literal "):
		f.Type = BinaryLiteral
	case cur.AdvanceExpected("delta "):
		f.Type = BinaryDelta
	default:
		return f, p.errorf("unknown binary delta type")
	}

	size, ok := cur.AdvanceDigit(10)
	if !ok || !cur.AdvanceNL() {
		return f, p.errorf("invalid binary size")
	}
	f.InflatedLen = size

	for cur.LineLen() > 0 {
		c, _ := cur.Peek()
		if c == '\n' {
			break
		}

		decodedLen := binaryLineLen(c)
		if decodedLen == 0 {
			return f, p.errorf("invalid binary length")
		}
		cur.AdvanceChars(1)

		encodedLen := (decodedLen + 3) / 4 * 5
		if cur.LineLen() == 0 || encodedLen > cur.LineLen()-1 {
			return f, p.errorf("truncated binary data")
		}

		decoded, err := decodeBase85(cur.Line()[:encodedLen], decodedLen)
		if err != nil {
			return f, p.errorf("invalid binary data: %v", err)
		}
		f.Data = append(f.Data, decoded...)

		cur.AdvanceChars(encodedLen)
		if !cur.AdvanceNL() {
			return f, p.errorf("trailing data")
		}
	}

	return f, nil
}

// binaryLineLen decodes the length character that starts a base85 line:
// 'A'-'Z' are 1-26 and 'a'-'z' are 27-52.
func binaryLineLen(c byte) int {
	switch {
	case c >= 'A' && c <= 'Z':
		return int(c-'A') + 1
	case c >= 'a' && c <= 'z':
		return int(c-'a') + 27
	}
	return 0
}

// parseBinaryNoData parses "Binary files X and Y differ". Both paths must
// already be known from the header.
func (p *parser) parseBinaryNoData() error {
	oldPath := firstNonEmpty(p.oldPath, p.headerOldPath)
	newPath := firstNonEmpty(p.newPath, p.headerNewPath)
	if oldPath == "" || newPath == "" {
		return p.errorf("corrupt binary data without paths")
	}

	switch p.patch.Status {
	case StatusAdded:
		oldPath = DevNull
	case StatusDeleted:
		newPath = DevNull
	}

	cur := p.cur
	if !cur.AdvanceExpected("Binary files ") ||
		!cur.AdvanceExpected(oldPath) ||
		!cur.AdvanceExpected(" and ") ||
		!cur.AdvanceExpected(newPath) ||
		!cur.AdvanceExpected(" differ") ||
		!cur.AdvanceNL() {
		return p.errorf("corrupt git binary header")
	}

	p.patch.BinaryData = BinaryPatch{}
	p.patch.Binary = true
	return nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
