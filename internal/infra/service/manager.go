// Package service installs the sync daemon as a per-user system service.
package service

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
)

var (
	ErrNotInstalled = errors.New("service not installed")
	ErrUnsupported  = errors.New("service manager unsupported on this platform")
	ErrNoBinary     = errors.New("instancecatd binary not found")
)

const defaultBinaryName = "instancecatd"

// Status describes the installed unit.
type Status struct {
	Installed     bool   `json:"installed" yaml:"installed"`
	Running       bool   `json:"running" yaml:"running"`
	Unit          string `json:"unit" yaml:"unit"`
	ConfigPath    string `json:"configPath,omitempty" yaml:"configPath,omitempty"`
	StoresPath    string `json:"storesPath,omitempty" yaml:"storesPath,omitempty"`
	ListenAddress string `json:"listenAddress,omitempty" yaml:"listenAddress,omitempty"`
}

// Options configures a Manager. Empty paths are left out of the unit so the
// daemon falls back to its own defaults.
type Options struct {
	BinaryPath    string
	ConfigPath    string
	StoresPath    string
	ListenAddress string
	Runner        CommandRunner
}

// CommandRunner runs a service manager command and returns its combined
// output and exit code.
type CommandRunner func(ctx context.Context, name string, args ...string) (string, int, error)

type Manager struct {
	binaryPath    string
	configPath    string
	storesPath    string
	listenAddress string
	runner        CommandRunner
}

func NewManager(opts Options) (*Manager, error) {
	configPath, err := absPath(opts.ConfigPath)
	if err != nil {
		return nil, err
	}
	storesPath, err := absPath(opts.StoresPath)
	if err != nil {
		return nil, err
	}
	runner := opts.Runner
	if runner == nil {
		runner = execCommand
	}
	return &Manager{
		binaryPath:    strings.TrimSpace(opts.BinaryPath),
		configPath:    configPath,
		storesPath:    storesPath,
		listenAddress: strings.TrimSpace(opts.ListenAddress),
		runner:        runner,
	}, nil
}

// Install writes the unit and enables it. It does not start the daemon.
func (m *Manager) Install(ctx context.Context) (Status, error) {
	binary, err := resolveBinary(m.binaryPath)
	if err != nil {
		return Status{}, err
	}
	if err := platformInstall(ctx, m, binary); err != nil {
		return Status{}, err
	}
	return m.Status(ctx)
}

func (m *Manager) Uninstall(ctx context.Context) (Status, error) {
	if err := platformUninstall(ctx, m); err != nil {
		return Status{}, err
	}
	return m.Status(ctx)
}

func (m *Manager) Start(ctx context.Context) (Status, error) {
	if err := platformStart(ctx, m); err != nil {
		return Status{}, err
	}
	return m.Status(ctx)
}

func (m *Manager) Stop(ctx context.Context) (Status, error) {
	if err := platformStop(ctx, m); err != nil {
		return Status{}, err
	}
	return m.Status(ctx)
}

func (m *Manager) Status(ctx context.Context) (Status, error) {
	installed, running, err := platformStatus(ctx, m)
	if err != nil {
		return Status{}, err
	}
	return Status{
		Installed:     installed,
		Running:       running,
		Unit:          platformUnitName(),
		ConfigPath:    m.configPath,
		StoresPath:    m.storesPath,
		ListenAddress: m.listenAddress,
	}, nil
}

// environment lists the variables the unit passes to the daemon.
func (m *Manager) environment() [][2]string {
	var env [][2]string
	if m.storesPath != "" {
		env = append(env, [2]string{"INSTANCECAT_STORE_PATH", m.storesPath})
	}
	if m.listenAddress != "" {
		env = append(env, [2]string{"INSTANCECAT_OBSERVABILITY_LISTENADDRESS", m.listenAddress})
	}
	return env
}

func absPath(path string) (string, error) {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return "", nil
	}
	return filepath.Abs(filepath.Clean(trimmed))
}

// resolveBinary prefers an explicit path, then PATH, then the directory of
// the running executable.
func resolveBinary(path string) (string, error) {
	name := strings.TrimSpace(path)
	if name == "" {
		name = defaultBinaryName
	}
	if isFile(name) {
		return filepath.Abs(name)
	}
	if resolved, err := exec.LookPath(name); err == nil {
		return resolved, nil
	}
	if self, err := os.Executable(); err == nil {
		candidate := filepath.Join(filepath.Dir(self), filepath.Base(name))
		if isFile(candidate) {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("%w: %s", ErrNoBinary, name)
}

func isFile(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

func execCommand(ctx context.Context, name string, args ...string) (string, int, error) {
	output, err := exec.CommandContext(ctx, name, args...).CombinedOutput()
	if err == nil {
		return string(output), 0, nil
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return string(output), exitErr.ExitCode(), err
	}
	return string(output), -1, err
}

func (m *Manager) run(ctx context.Context, name string, args ...string) error {
	output, exitCode, err := m.runner(ctx, name, args...)
	if err == nil {
		return nil
	}
	if errors.Is(err, context.Canceled) {
		return err
	}
	command := strings.TrimSpace(name + " " + strings.Join(args, " "))
	if trimmed := strings.TrimSpace(output); trimmed != "" {
		return fmt.Errorf("%s failed (exit=%d): %s", command, exitCode, trimmed)
	}
	return fmt.Errorf("%s failed: %w", command, err)
}
