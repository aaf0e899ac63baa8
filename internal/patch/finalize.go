package patch

import "strings"

// checkPatch validates the parsed header against itself and fills in the
// fields implied by it.
func (p *parser) checkPatch() error {
	pt := p.patch

	p.inferStatus()

	if err := p.checkFilenames(); err != nil {
		return err
	}

	if pt.OldPath != "" && pt.Status != StatusDeleted && pt.NewMode == 0 {
		pt.NewMode = pt.OldMode
	}

	if pt.Status == StatusModified && pt.OldMode != 0 && pt.NewMode != 0 &&
		pt.OldMode.Type() != pt.NewMode.Type() {
		pt.Status = StatusTypeChange
	}

	// Git prints no hunks for binary files it does not inline.
	if pt.Status == StatusModified && !pt.Binary && pt.OldMode == pt.NewMode && len(pt.Hunks) == 0 {
		pt.Binary = true
	}

	switch pt.Status {
	case StatusAdded:
		pt.OldID = ""
	case StatusDeleted:
		pt.NewID = ""
	}
	return nil
}

// inferStatus detects additions and deletions in traditional diffs, which
// mark the missing side with the null device instead of a mode line.
func (p *parser) inferStatus() {
	if p.patch.Status != StatusModified {
		return
	}
	switch {
	case p.oldPath == DevNull && p.newPath != DevNull:
		p.patch.Status = StatusAdded
	case p.newPath == DevNull && p.oldPath != DevNull:
		p.patch.Status = StatusDeleted
	}
}

func (p *parser) checkFilenames() error {
	pt := p.patch
	added := pt.Status == StatusAdded
	deleted := pt.Status == StatusDeleted

	if p.oldPath != "" && p.newPath == "" {
		return p.errorf("missing new path")
	}
	if p.oldPath == "" && p.newPath != "" {
		return p.errorf("missing old path")
	}

	if err := p.checkHeaderNames(p.headerOldPath, p.oldPath, "old", added); err != nil {
		return err
	}
	if err := p.checkHeaderNames(p.headerNewPath, p.newPath, "new", deleted); err != nil {
		return err
	}

	prefixedOld := p.headerOldPath
	if !added && p.oldPath != "" {
		prefixedOld = p.oldPath
	}
	prefixedNew := p.headerNewPath
	if !deleted && p.newPath != "" {
		prefixedNew = p.newPath
	}

	oldPath, err := p.stripPrefix(prefixedOld)
	if err != nil {
		return err
	}
	newPath, err := p.stripPrefix(prefixedNew)
	if err != nil {
		return err
	}

	// Rename and copy paths are written without a prefix.
	pt.OldPath = firstNonEmpty(p.renameOldPath, oldPath)
	pt.NewPath = firstNonEmpty(p.renameNewPath, newPath)

	if pt.OldPath == "" && pt.NewPath == "" {
		return p.errorf("git diff header lacks old / new paths")
	}

	switch {
	case added:
		pt.OldPath = DevNull
	case deleted:
		pt.NewPath = DevNull
	}
	return nil
}

// checkHeaderNames compares a "diff --git" path with the matching "---" or
// "+++" path. For the absent side of an addition or deletion the latter must
// be the null device.
func (p *parser) checkHeaderNames(header, path, side string, wantNull bool) error {
	if header == "" || path == "" {
		return nil
	}
	if wantNull {
		if path != DevNull {
			return p.errorf("expected %s path of '%s'", side, DevNull)
		}
		return nil
	}
	if header != path {
		return p.errorf("mismatched %s path names", side)
	}
	return nil
}

// stripPrefix removes the configured number of leading path components.
// Leading slashes do not count as a component.
func (p *parser) stripPrefix(path string) (string, error) {
	n := p.opts.prefixLen
	if path == "" || n == 0 {
		return path, nil
	}

	rest := strings.TrimLeft(path, "/")
	for ; n > 0 && rest != ""; n-- {
		i := strings.IndexByte(rest, '/')
		if i < 0 {
			rest = ""
			break
		}
		rest = rest[i+1:]
	}

	if n > 0 || rest == "" {
		return "", p.errorf("header filename does not contain %d path components", p.opts.prefixLen)
	}
	return rest, nil
}
