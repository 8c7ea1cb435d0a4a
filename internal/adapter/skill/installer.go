// Package skill installs the packaged review-pipeline skill document into a
// coding agent's local skills directory.
package skill

import (
	"embed"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

// SkillName is the directory name the skill installs under.
const SkillName = "prereview-pipeline"

//go:embed assets/prereview-pipeline
var assets embed.FS

// AgentChoices lists the agents with a known local skills root.
var AgentChoices = []string{"codex", "claude", "copilot"}

var localSkillsRoot = map[string]string{
	"codex":   filepath.Join(".codex", "skills"),
	"claude":  filepath.Join(".claude", "skills"),
	"copilot": filepath.Join(".github", "skills"),
}

// TargetRoot resolves the skills root for an agent under projectRoot.
func TargetRoot(agent, projectRoot string) (string, error) {
	root, ok := localSkillsRoot[agent]
	if !ok {
		return "", fmt.Errorf("unsupported agent %q (choose one of codex, claude, copilot)", agent)
	}
	if projectRoot == "" {
		projectRoot = "."
	}
	abs, err := filepath.Abs(filepath.Join(projectRoot, root))
	if err != nil {
		return "", fmt.Errorf("failed to resolve skills root: %w", err)
	}
	return abs, nil
}

// Install copies the packaged skill into targetRoot/<SkillName>. An existing
// install is only replaced when force is set.
func Install(targetRoot string, force bool) (string, error) {
	installPath := filepath.Join(targetRoot, SkillName)

	if _, err := os.Stat(installPath); err == nil {
		if !force {
			return "", fmt.Errorf("skill destination already exists: %s", installPath)
		}
		if err := os.RemoveAll(installPath); err != nil {
			return "", fmt.Errorf("failed to replace existing skill: %w", err)
		}
	} else if !os.IsNotExist(err) {
		return "", fmt.Errorf("failed to inspect skill destination: %w", err)
	}

	source, err := fs.Sub(assets, "assets/"+SkillName)
	if err != nil {
		return "", fmt.Errorf("packaged skill assets missing: %w", err)
	}

	if err := copyTree(source, installPath); err != nil {
		return "", err
	}
	return installPath, nil
}

// Installer adapts the package functions to the CLI's skill manager port.
type Installer struct{}

func (Installer) TargetRoot(agent, projectRoot string) (string, error) {
	return TargetRoot(agent, projectRoot)
}

func (Installer) Install(targetRoot string, force bool) (string, error) {
	return Install(targetRoot, force)
}

func copyTree(source fs.FS, destination string) error {
	return fs.WalkDir(source, ".", func(path string, entry fs.DirEntry, err error) error {
		if err != nil {
			return err
		}

		target := filepath.Join(destination, filepath.FromSlash(path))
		if entry.IsDir() {
			if err := os.MkdirAll(target, 0o755); err != nil {
				return fmt.Errorf("failed to create %s: %w", target, err)
			}
			return nil
		}

		data, err := fs.ReadFile(source, path)
		if err != nil {
			return fmt.Errorf("failed to read packaged asset %s: %w", path, err)
		}
		if err := os.WriteFile(target, data, 0o644); err != nil {
			return fmt.Errorf("failed to write %s: %w", target, err)
		}
		return nil
	})
}
