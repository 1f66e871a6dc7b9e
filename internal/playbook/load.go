package playbook

import (
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	derrors "git.home.luguber.info/inful/docsite/internal/errors"
)

// Build resolves the playbook for one run. Settings are layered as
// flags > env > playbook file > defaults. Nothing is fetched or written.
func Build(args []string, env map[string]string) (*Playbook, error) {
	flags, err := ParseFlags(args)
	if err != nil {
		return nil, derrors.Wrap(err, derrors.CategoryConfig, derrors.SeverityFatal, "invalid generator arguments")
	}
	pb, err := Load(flags.Playbook, env)
	if err != nil {
		return nil, err
	}
	flags.apply(pb)
	if err := finalize(pb); err != nil {
		return nil, err
	}
	return pb, nil
}

// Load reads a playbook file and applies env overrides. Defaults and
// validation are applied by Build.
func Load(path string, env map[string]string) (*Playbook, error) {
	if path == "" {
		return nil, derrors.ConfigRequired("playbook")
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, derrors.ConfigInvalid(path, err)
	}
	data, err := os.ReadFile(abs)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, derrors.ConfigNotFound(abs)
		}
		return nil, derrors.ConfigInvalid(abs, err)
	}

	dir := filepath.Dir(abs)
	merged, err := overlayDotEnv(dir, env)
	if err != nil {
		return nil, derrors.ConfigInvalid(filepath.Join(dir, ".env"), err)
	}

	var pb Playbook
	if err := yaml.Unmarshal([]byte(expand(string(data), merged)), &pb); err != nil {
		return nil, derrors.ConfigInvalid(abs, err)
	}
	pb.File = abs
	pb.Dir = dir
	pb.Env = merged

	applyEnv(&pb, merged)
	return &pb, nil
}

func finalize(pb *Playbook) error {
	applyDefaults(pb)
	resolvePaths(pb)
	return validate(pb)
}

// resolvePaths makes local paths absolute relative to the playbook directory.
func resolvePaths(pb *Playbook) {
	pb.Runtime.CacheDir = pb.resolve(pb.Runtime.CacheDir)
	pb.Output.Dir = pb.resolve(pb.Output.Dir)
	for i := range pb.Output.Destinations {
		pb.Output.Destinations[i].Path = pb.resolve(pb.Output.Destinations[i].Path)
	}
	if pb.History.DB != "" {
		pb.History.DB = pb.resolve(pb.History.DB)
	}
	if pb.Metrics.Textfile != "" {
		pb.Metrics.Textfile = pb.resolve(pb.Metrics.Textfile)
	}
	if pb.UI.SupplementalFiles != "" {
		pb.UI.SupplementalFiles = pb.resolve(pb.UI.SupplementalFiles)
	}
}

func (pb *Playbook) resolve(p string) string {
	if p == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(pb.Dir, p)
}

// ResolveLocal returns the absolute location of a content source or bundle
// given relative to the playbook directory.
func (pb *Playbook) ResolveLocal(p string) string {
	return pb.resolve(p)
}
