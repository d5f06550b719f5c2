//go:build linux

package service

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"text/template"
)

const systemdUnitName = "instancecatd.service"

var unitTemplate = template.Must(template.New("unit").Funcs(template.FuncMap{
	"arg": systemdArg,
	"env": systemdEnv,
}).Parse(`[Unit]
Description=instancecat catalog sync daemon
After=network-online.target

[Service]
Type=simple
ExecStart={{ arg .Binary }} serve{{ if .Config }} --config {{ arg .Config }}{{ end }}
{{- range .Env }}
Environment={{ env (index . 0) (index . 1) }}
{{- end }}
Restart=on-failure
RestartSec=30

[Install]
WantedBy=default.target
`))

type unitData struct {
	Binary string
	Config string
	Env    [][2]string
}

func platformUnitName() string {
	return systemdUnitName
}

func renderUnit(m *Manager, binary string) (string, error) {
	var buf bytes.Buffer
	err := unitTemplate.Execute(&buf, unitData{
		Binary: binary,
		Config: m.configPath,
		Env:    m.environment(),
	})
	return buf.String(), err
}

func platformInstall(ctx context.Context, m *Manager, binary string) error {
	path, err := unitPath()
	if err != nil {
		return err
	}
	unit, err := renderUnit(m, binary)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	if err := os.WriteFile(path, []byte(unit), 0o644); err != nil {
		return err
	}
	if err := m.run(ctx, "systemctl", "--user", "daemon-reload"); err != nil {
		return err
	}
	return m.run(ctx, "systemctl", "--user", "enable", systemdUnitName)
}

func platformUninstall(ctx context.Context, m *Manager) error {
	path, installed, err := installedUnit()
	if err != nil || !installed {
		return err
	}
	_ = m.run(ctx, "systemctl", "--user", "disable", "--now", systemdUnitName)
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return m.run(ctx, "systemctl", "--user", "daemon-reload")
}

func platformStart(ctx context.Context, m *Manager) error {
	return m.requireInstalled(ctx, "start")
}

func platformStop(ctx context.Context, m *Manager) error {
	return m.requireInstalled(ctx, "stop")
}

func (m *Manager) requireInstalled(ctx context.Context, verb string) error {
	_, installed, err := installedUnit()
	if err != nil {
		return err
	}
	if !installed {
		return ErrNotInstalled
	}
	return m.run(ctx, "systemctl", "--user", verb, systemdUnitName)
}

// platformStatus follows systemctl is-active exit codes: 3 is inactive and
// 4 is an unknown unit.
func platformStatus(ctx context.Context, m *Manager) (bool, bool, error) {
	_, installed, err := installedUnit()
	if err != nil || !installed {
		return false, false, err
	}
	output, exitCode, err := m.runner(ctx, "systemctl", "--user", "is-active", systemdUnitName)
	state := strings.TrimSpace(output)
	switch {
	case err == nil && state == "active":
		return true, true, nil
	case exitCode == 4 || state == "unknown":
		return false, false, nil
	case exitCode == 3 || state == "inactive" || state == "failed" || err == nil:
		return true, false, nil
	default:
		return true, false, m.run(ctx, "systemctl", "--user", "is-active", systemdUnitName)
	}
}

func installedUnit() (string, bool, error) {
	path, err := unitPath()
	if err != nil {
		return "", false, err
	}
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return path, false, nil
		}
		return path, false, err
	}
	return path, true, nil
}

func unitPath() (string, error) {
	base, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(base, "systemd", "user", systemdUnitName), nil
}

func systemdArg(value string) string {
	if value == "" {
		return `""`
	}
	if strings.ContainsAny(value, " \t\n\"\\") {
		return strconv.Quote(value)
	}
	return value
}

func systemdEnv(key, value string) string {
	return strconv.Quote(key + "=" + value)
}
