package crypt

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	kerrors "github.com/fernvale/daybook/internal/errors"
	"github.com/fernvale/daybook/internal/utils"
)

// roundTripPayload is the known plaintext used to verify encryption is
// functional right now with the resolved config.
const roundTripPayload = "daybook round-trip probe\n"

// Capability memoizes the expensive subprocess-backed checks (tool
// availability, round-trip test) for the duration of one invocation.
// Construct one per run; never re-probe ad hoc at call sites.
type Capability struct {
	tool       *Tool
	configPath string

	availOnce sync.Once
	available bool
	version   string

	validOnce sync.Once
	validErr  error

	rtOnce sync.Once
	rtErr  error
}

// NewCapability builds the capability object for one invocation. configPath
// may be empty, meaning no encryption config was resolved.
func NewCapability(tool *Tool, configPath string) *Capability {
	return &Capability{tool: tool, configPath: configPath}
}

// Tool returns the underlying tool wrapper.
func (c *Capability) Tool() *Tool {
	return c.tool
}

// HasConfig reports whether an encryption config was resolved for this run.
func (c *Capability) HasConfig() bool {
	return c.configPath != ""
}

// ToolAvailable reports whether the encryption tool is usable.
func (c *Capability) ToolAvailable() bool {
	c.probeTool()
	return c.available
}

// Version returns the tool's version string for diagnostics, or "" when the
// tool is unavailable.
func (c *Capability) Version() string {
	c.probeTool()
	return c.version
}

func (c *Capability) probeTool() {
	c.availOnce.Do(func() {
		c.version, c.available = c.tool.Available()
	})
}

// ValidateConfig checks the resolved config structurally. Memoized.
func (c *Capability) ValidateConfig() error {
	c.validOnce.Do(func() {
		if c.configPath == "" {
			c.validErr = kerrors.ErrConfigNotFound
			return
		}
		c.validErr = ValidateConfig(c.configPath)
	})
	return c.validErr
}

// RoundTrip encrypts and decrypts a known payload with the resolved config
// and compares the result to the original. This forks the tool twice, so the
// result is cached for the rest of the invocation. It is the authoritative
// signal that encryption is usable: structural validity alone cannot tell
// whether key material is accessible.
func (c *Capability) RoundTrip(ctx context.Context) error {
	c.rtOnce.Do(func() {
		c.rtErr = c.roundTrip(ctx)
	})
	return c.rtErr
}

func (c *Capability) roundTrip(ctx context.Context) error {
	if !c.ToolAvailable() {
		return kerrors.ErrToolNotFound
	}
	if err := c.ValidateConfig(); err != nil {
		return err
	}

	dir, err := os.MkdirTemp("", "daybook-roundtrip-*")
	if err != nil {
		return fmt.Errorf("%w: %v", kerrors.ErrRoundTripFailed, err)
	}
	defer os.RemoveAll(dir)

	// Copy the config next to the probe so the tool's own discovery finds
	// it even when it was resolved from an unrelated directory.
	probeConfig := filepath.Join(dir, ".sops.yaml")
	if err := utils.CopyFile(c.configPath, probeConfig); err != nil {
		return fmt.Errorf("%w: %v", kerrors.ErrRoundTripFailed, err)
	}

	// The probe is named like an entry so journal-scoped creation rules match.
	probe := filepath.Join(dir, "journal.daily.1970.01.01.md")
	if err := os.WriteFile(probe, []byte(roundTripPayload), 0600); err != nil {
		return fmt.Errorf("%w: %v", kerrors.ErrRoundTripFailed, err)
	}

	probeTool := &Tool{Binary: c.tool.Binary, ConfigPath: probeConfig, Env: c.tool.Env}
	if err := probeTool.EncryptInPlace(ctx, probe); err != nil {
		return fmt.Errorf("%w: %v", kerrors.ErrRoundTripFailed, err)
	}

	plaintext, err := probeTool.Decrypt(ctx, probe)
	if err != nil {
		return fmt.Errorf("%w: %v", kerrors.ErrRoundTripFailed, err)
	}

	if !bytes.Equal(plaintext, []byte(roundTripPayload)) {
		return fmt.Errorf("%w: decrypted payload differs from original", kerrors.ErrRoundTripFailed)
	}

	return nil
}

// EncryptionReady gates every write path that requires encryption: config
// present and valid, tool available, round-trip verified. This tool never
// silently writes unencrypted data when encryption was asked for.
func (c *Capability) EncryptionReady(ctx context.Context) error {
	if !c.HasConfig() {
		return kerrors.ErrConfigNotFound
	}
	if !c.ToolAvailable() {
		return kerrors.ErrToolNotFound
	}
	if err := c.ValidateConfig(); err != nil {
		return err
	}
	return c.RoundTrip(ctx)
}
