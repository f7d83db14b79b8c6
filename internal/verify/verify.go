package verify

import (
	"context"
	"fmt"
)

// Named gate failures. Any entry here blocks the corresponding original
// from deletion.
const (
	FailureCopySourcesDisabled = "copy-sources-disabled"
	FailureSourcesMismatch     = "sources-byte-mismatch"
	FailureZipMismatch         = "zip-byte-mismatch"
)

// Drift recognition thresholds: a zone/DST artifact shows up as a uniform
// one-hour shift across most shared files after zip extraction.
const (
	driftSeconds  = 3600
	driftMinFiles = 3
	driftMinShare = 0.8
)

// Request names the trees and archives to compare. Empty fields mean the
// corresponding item does not exist for this run.
type Request struct {
	CopySourcesEnabled bool
	SourcesDir         string // Sources copy of the original folder
	OriginalDir        string // the original input folder
	OriginalZip        string // the original archive, when input was a zip
	SourcesZip         string // archive copy under the output root, if made
}

// Result is the deletion authorization set. Deletion of originals is only
// ever computed from a Result, never inferred elsewhere.
type Result struct {
	Deletable    []string // original locators safe to remove
	GateFailures []string
	Advisories   []string // reported but never blocking
}

func (r *Result) failed(reason string) {
	r.GateFailures = append(r.GateFailures, reason)
}

// Verify runs both gates. The copy-sources gate rejects everything when the
// run did not copy sources; the content-identity gate admits each original
// item independently, so a missing zip copy never blocks the folder-based
// original. Verification is read-only and re-runnable.
func Verify(ctx context.Context, req Request) (*Result, error) {
	res := &Result{}

	if !req.CopySourcesEnabled {
		res.failed(FailureCopySourcesDisabled)
		return res, nil
	}

	if req.OriginalDir != "" && req.SourcesDir != "" {
		orig, err := DirManifest(ctx, req.OriginalDir)
		if err != nil {
			return nil, fmt.Errorf("hash original: %w", err)
		}
		copied, err := DirManifest(ctx, req.SourcesDir)
		if err != nil {
			return nil, fmt.Errorf("hash sources copy: %w", err)
		}
		if ManifestsEqual(orig, copied) {
			res.Deletable = append(res.Deletable, req.OriginalDir)
		} else {
			res.failed(FailureSourcesMismatch)
		}
		if adv := detectDrift(req.OriginalDir, req.SourcesDir); adv != "" {
			res.Advisories = append(res.Advisories, adv)
		}
	}

	if req.OriginalZip != "" {
		if req.SourcesZip == "" {
			res.Advisories = append(res.Advisories, "no archive copy made; original zip left untouched")
		} else {
			orig, err := ZipManifest(ctx, req.OriginalZip)
			if err != nil {
				return nil, fmt.Errorf("hash original zip: %w", err)
			}
			copied, err := ZipManifest(ctx, req.SourcesZip)
			if err != nil {
				return nil, fmt.Errorf("hash zip copy: %w", err)
			}
			if ManifestsEqual(orig, copied) {
				res.Deletable = append(res.Deletable, req.OriginalZip)
			} else {
				res.failed(FailureZipMismatch)
			}
		}
	}

	return res, nil
}

// detectDrift reports a uniform ±3600s modification-time shift across a
// high fraction of shared files. Content hashes decide deletability; this
// is informational only.
func detectDrift(originalDir, sourcesDir string) string {
	origTimes := dirMtimes(originalDir)
	copyTimes := dirMtimes(sourcesDir)

	shared, plus, minus := 0, 0, 0
	for rel, ot := range origTimes {
		ct, ok := copyTimes[rel]
		if !ok {
			continue
		}
		shared++
		switch ct - ot {
		case driftSeconds:
			plus++
		case -driftSeconds:
			minus++
		}
	}
	if shared < driftMinFiles {
		return ""
	}
	if float64(plus) >= driftMinShare*float64(shared) && plus >= driftMinFiles {
		return fmt.Sprintf("timestamp drift +%ds on %d/%d shared files (zip extraction artifact)", driftSeconds, plus, shared)
	}
	if float64(minus) >= driftMinShare*float64(shared) && minus >= driftMinFiles {
		return fmt.Sprintf("timestamp drift -%ds on %d/%d shared files (zip extraction artifact)", driftSeconds, minus, shared)
	}
	return ""
}
