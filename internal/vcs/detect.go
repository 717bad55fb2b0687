package vcs

import (
	"os"
	"path/filepath"

	"go.uber.org/zap"
)

// Backend marker directories probed during detection.
const (
	jujutsuMarker = ".jj"
	gitMarker     = ".git"
)

// Detect probes upward from dir for a backend marker and returns the
// matching backend rooted at the marker's directory. A colocated Jujutsu
// repository always carries a .git directory too, so the .jj marker is the
// more specific one and wins whenever both are present at the same level.
// The probe is bounded by ceiling when non-empty, otherwise by the
// filesystem root. ErrNotARepository when no marker is found; hook callers
// degrade gracefully instead of blocking the editor.
func Detect(dir, ceiling string, runner Runner, log *zap.Logger) (Backend, error) {
	kind, root, err := DetectKind(dir, ceiling)
	if err != nil {
		return nil, err
	}
	if log == nil {
		log = zap.NewNop()
	}
	if runner == nil {
		runner = NewExecRunner(log)
	}
	switch kind {
	case KindJujutsu:
		return NewJujutsu(root, runner, log), nil
	default:
		return NewGit(root, runner, log), nil
	}
}

// DetectKind walks from dir toward ceiling (or the filesystem root) looking
// for marker directories. The nearest marker wins; at equal depth Jujutsu
// beats Git.
func DetectKind(dir, ceiling string) (Kind, string, error) {
	cur, err := filepath.Abs(dir)
	if err != nil {
		return "", "", err
	}
	if ceiling != "" {
		if ceiling, err = filepath.Abs(ceiling); err != nil {
			return "", "", err
		}
	}

	for {
		if hasMarkerDir(cur, jujutsuMarker) {
			return KindJujutsu, cur, nil
		}
		if hasMarkerDir(cur, gitMarker) {
			return KindGit, cur, nil
		}

		if cur == ceiling {
			break
		}
		parent := filepath.Dir(cur)
		if parent == cur {
			break
		}
		cur = parent
	}
	return "", "", ErrNotARepository
}

func hasMarkerDir(dir, marker string) bool {
	info, err := os.Stat(filepath.Join(dir, marker))
	return err == nil && info.IsDir()
}
