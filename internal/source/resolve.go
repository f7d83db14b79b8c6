// Package source normalizes any user-chosen input (bare transcript, export
// folder, zip archive, or a previously produced output root) into a
// canonical working folder plus a provenance record. No other package
// touches raw user-selected paths.
package source

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"github.com/google/uuid"
	"github.com/wetools/wet/internal/chat"
)

// InputKind classifies what the user actually selected.
type InputKind int

const (
	KindLooseTranscript InputKind = iota
	KindExportFolder
	KindZipArchive
	KindReplayOutput
)

func (k InputKind) String() string {
	switch k {
	case KindLooseTranscript:
		return "transcript"
	case KindExportFolder:
		return "folder"
	case KindZipArchive:
		return "zip"
	default:
		return "replay"
	}
}

// SourcesDirName is the subfolder of an output root that holds the verified
// copy of the original input. Its presence marks a folder as replayable.
const SourcesDirName = "Sources"

var (
	ErrNoTranscript          = errors.New("no transcript found in input")
	ErrUnsupportedInput      = errors.New("unsupported input type")
	ErrReplaySourcesRequired = errors.New("replaying an output folder requires selecting its Sources subtree")
)

// Provenance records where a run's data came from. Created once per run by
// Resolve and immutable afterward; the verifier reads it to know what
// "original" means.
type Provenance struct {
	InputKind            InputKind
	OriginalPath         string // the user-selected locator
	WorkDir              string // resolved canonical folder holding the transcript
	OriginalArchive      string // zip this folder was extracted from, if any
	PartnerLabel         string // detected from file/folder naming
	PartnerLabelOverride string
}

// Label returns the effective partner label.
func (p *Provenance) Label() string {
	if p.PartnerLabelOverride != "" {
		return p.PartnerLabelOverride
	}
	return p.PartnerLabel
}

// Snapshot is a resolved input ready for parsing. When the input was a zip
// archive the snapshot exclusively owns a temporary workspace which Close
// removes; snapshots from folders own nothing.
type Snapshot struct {
	TranscriptPath string
	WorkDir        string
	Provenance     Provenance
	Replay         bool
	SourcesRoot    string // set in replay mode

	tempDir string
}

// Close releases the snapshot's temporary workspace, if any. Safe to call
// more than once.
func (s *Snapshot) Close() error {
	if s.tempDir == "" {
		return nil
	}
	dir := s.tempDir
	s.tempDir = ""
	return os.RemoveAll(dir)
}

// Resolve turns an arbitrary filesystem locator into a Snapshot.
func Resolve(path string) (*Snapshot, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolve %s: %w", path, err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return nil, fmt.Errorf("stat input: %w", err)
	}

	if !info.IsDir() {
		switch strings.ToLower(filepath.Ext(abs)) {
		case ".zip":
			return resolveZip(abs)
		case ".txt":
			return resolveLooseTranscript(abs)
		}
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedInput, abs)
	}

	// replay takes precedence: never re-export from rendered output
	if snap, ok, err := resolveReplay(abs); err != nil || ok {
		return snap, err
	}
	return resolveFolder(abs)
}

func resolveLooseTranscript(path string) (*Snapshot, error) {
	dir := filepath.Dir(path)
	return &Snapshot{
		TranscriptPath: path,
		WorkDir:        dir,
		Provenance: Provenance{
			InputKind:    KindLooseTranscript,
			OriginalPath: path,
			WorkDir:      dir,
			PartnerLabel: partnerFromName(strings.TrimSuffix(filepath.Base(path), ".txt")),
		},
	}, nil
}

func resolveFolder(dir string) (*Snapshot, error) {
	transcript, err := findTranscript(dir)
	if err != nil {
		return nil, err
	}
	return &Snapshot{
		TranscriptPath: transcript,
		WorkDir:        dir,
		Provenance: Provenance{
			InputKind:    KindExportFolder,
			OriginalPath: dir,
			WorkDir:      dir,
			PartnerLabel: partnerLabel(transcript, filepath.Base(dir)),
		},
	}, nil
}

func resolveZip(archive string) (*Snapshot, error) {
	tempDir, err := os.MkdirTemp("", "wet-"+uuid.NewString()[:8]+"-")
	if err != nil {
		return nil, fmt.Errorf("create workspace: %w", err)
	}
	if err := extractZip(archive, tempDir); err != nil {
		os.RemoveAll(tempDir)
		return nil, fmt.Errorf("extract %s: %w", filepath.Base(archive), err)
	}

	workDir := singleChildDir(tempDir)
	transcript, err := findTranscript(workDir)
	if err != nil {
		os.RemoveAll(tempDir)
		return nil, err
	}
	// a flat archive has no wrapper folder to name the chat after; fall
	// back to the archive's own name, never the temp workspace
	fallback := filepath.Base(workDir)
	if workDir == tempDir {
		fallback = strings.TrimSuffix(filepath.Base(archive), filepath.Ext(archive))
	}
	return &Snapshot{
		TranscriptPath: transcript,
		WorkDir:        workDir,
		tempDir:        tempDir,
		Provenance: Provenance{
			InputKind:       KindZipArchive,
			OriginalPath:    archive,
			WorkDir:         workDir,
			OriginalArchive: archive,
			PartnerLabel:    partnerLabel(transcript, fallback),
		},
	}, nil
}

// resolveReplay handles inputs that are a previously produced output root,
// or nested inside one. The canonical folder is always the original copy
// under Sources/, never the root's rendered artifacts.
func resolveReplay(dir string) (*Snapshot, bool, error) {
	root, ok := findOutputRoot(dir)
	if !ok {
		return nil, false, nil
	}
	sourcesRoot := filepath.Join(root, SourcesDirName)

	if dir != root && !withinDir(sourcesRoot, dir) {
		return nil, true, fmt.Errorf("%s: %w", dir, ErrReplaySourcesRequired)
	}

	workDir, transcript, err := findSourcesExport(sourcesRoot, dir)
	if err != nil {
		return nil, true, err
	}
	return &Snapshot{
		TranscriptPath: transcript,
		WorkDir:        workDir,
		Replay:         true,
		SourcesRoot:    sourcesRoot,
		Provenance: Provenance{
			InputKind:    KindReplayOutput,
			OriginalPath: dir,
			WorkDir:      workDir,
			PartnerLabel: partnerLabel(transcript, filepath.Base(workDir)),
		},
	}, true, nil
}

// findOutputRoot walks dir and its ancestors looking for a folder with a
// replayable Sources child.
func findOutputRoot(dir string) (string, bool) {
	for p := dir; ; {
		if hasReplayableSources(p) {
			return p, true
		}
		parent := filepath.Dir(p)
		if parent == p {
			return "", false
		}
		p = parent
	}
}

func hasReplayableSources(dir string) bool {
	sources := filepath.Join(dir, SourcesDirName)
	info, err := os.Stat(sources)
	if err != nil || !info.IsDir() {
		return false
	}
	_, _, err = findSourcesExport(sources, "")
	return err == nil
}

// findSourcesExport locates the original export folder beneath Sources.
// If selected points at a specific folder inside Sources that holds a
// transcript, that folder wins; otherwise the lexically first child with a
// transcript is used, or Sources itself when the transcript sits directly
// in it.
func findSourcesExport(sourcesRoot, selected string) (string, string, error) {
	if selected != "" && selected != sourcesRoot && withinDir(sourcesRoot, selected) {
		if t, err := findTranscript(selected); err == nil {
			return selected, t, nil
		}
	}
	if t, err := findTranscript(sourcesRoot); err == nil {
		return sourcesRoot, t, nil
	}
	entries, err := os.ReadDir(sourcesRoot)
	if err != nil {
		return "", "", fmt.Errorf("read %s: %w", sourcesRoot, err)
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() && !strings.HasPrefix(e.Name(), ".") {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)
	for _, name := range names {
		dir := filepath.Join(sourcesRoot, name)
		if t, err := findTranscript(dir); err == nil {
			return dir, t, nil
		}
	}
	return "", "", fmt.Errorf("%s: %w", sourcesRoot, ErrNoTranscript)
}

func withinDir(root, path string) bool {
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return false
	}
	return rel == "." || (!strings.HasPrefix(rel, "..") && rel != "")
}

// transcript filename patterns across locales
var transcriptNames = []string{"_chat.txt"}

var reChatName = regexp.MustCompile(`^WhatsApp[ -]?Chat(?: (?:mit|with) | - )(.+)\.txt$`)

// findTranscript scans dir (non-recursively) for the transcript file.
// Known names win; otherwise any .txt whose head matches the header grammar.
func findTranscript(dir string) (string, error) {
	for _, name := range transcriptNames {
		p := filepath.Join(dir, name)
		if info, err := os.Stat(p); err == nil && !info.IsDir() {
			return p, nil
		}
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", fmt.Errorf("read %s: %w", dir, err)
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(e.Name(), ".txt") && !strings.HasPrefix(e.Name(), "._") {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)

	for _, name := range names {
		if reChatName.MatchString(name) {
			return filepath.Join(dir, name), nil
		}
	}
	for _, name := range names {
		p := filepath.Join(dir, name)
		f, err := os.Open(p)
		if err != nil {
			continue
		}
		ok := chat.LooksLikeTranscript(f)
		f.Close()
		if ok {
			return p, nil
		}
	}
	return "", fmt.Errorf("%s: %w", dir, ErrNoTranscript)
}

// partnerLabel derives the chat partner's display label from the transcript
// filename, falling back to the given folder or archive name.
func partnerLabel(transcript, fallbackName string) string {
	if m := reChatName.FindStringSubmatch(filepath.Base(transcript)); m != nil {
		return m[1]
	}
	return partnerFromName(fallbackName)
}

func partnerFromName(name string) string {
	if m := reChatName.FindStringSubmatch(name + ".txt"); m != nil {
		return m[1]
	}
	for _, prefix := range []string{"WhatsApp Chat mit ", "WhatsApp Chat with ", "WhatsApp Chat - "} {
		if strings.HasPrefix(name, prefix) {
			return strings.TrimPrefix(name, prefix)
		}
	}
	if name == "_chat" {
		return ""
	}
	return name
}

// singleChildDir returns the lone top-level folder of an extracted archive,
// or dir itself when the archive was not wrapped in one.
func singleChildDir(dir string) string {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return dir
	}
	var dirs []string
	for _, e := range entries {
		if e.IsDir() && !strings.HasPrefix(e.Name(), ".") && e.Name() != "__MACOSX" {
			dirs = append(dirs, e.Name())
		} else if !e.IsDir() {
			return dir
		}
	}
	if len(dirs) == 1 {
		return filepath.Join(dir, dirs[0])
	}
	return dir
}
