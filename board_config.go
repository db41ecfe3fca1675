// board_config.go - YAML board description

package main

import (
	"fmt"
	"os"

	yaml "gopkg.in/yaml.v2"
)

// RoutingPreset is register state programmed after construction, the way
// firmware leaves the control block before handing over to the kernel.
type RoutingPreset struct {
	GPUIRQCore       int      `yaml:"gpu_irq_core"`
	GPUFIQCore       int      `yaml:"gpu_fiq_core"`
	TimerControl     []uint32 `yaml:"timer_control"`
	MailboxControl   []uint32 `yaml:"mailbox_control"`
	MailboxIRQEnable bool     `yaml:"mailbox_irq_enable"`
}

// BoardConfig describes where the blocks live and which channel actors exist.
type BoardConfig struct {
	RouterBase  uint32        `yaml:"router_base"`
	MailboxBase uint32        `yaml:"mailbox_base"`
	Sentinel    uint32        `yaml:"sentinel"`
	Log         string        `yaml:"log"`
	Channels    []int         `yaml:"channels"`
	Manual      []int         `yaml:"manual_channels"`
	Routing     RoutingPreset `yaml:"routing"`
}

// DefaultBoardConfig matches a Raspberry Pi 2 with the four standard channels.
func DefaultBoardConfig() BoardConfig {
	return BoardConfig{
		RouterBase:  ROUTER_BASE,
		MailboxBase: MBOX_BASE,
		Sentinel:    MBOX_INVALID_DATA,
		Log:         "guest_errors",
		Channels:    []int{MBOX_CHAN_POWER, MBOX_CHAN_FB, MBOX_CHAN_VCHIQ, MBOX_CHAN_PROPERTY},
	}
}

// ParseBoardConfig overlays YAML data on the defaults.
func ParseBoardConfig(data []byte) (BoardConfig, error) {
	cfg := DefaultBoardConfig()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return BoardConfig{}, fmt.Errorf("parsing board config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return BoardConfig{}, err
	}
	return cfg, nil
}

// LoadBoardConfig reads a YAML board file.
func LoadBoardConfig(path string) (BoardConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return BoardConfig{}, fmt.Errorf("reading board config: %w", err)
	}
	return ParseBoardConfig(data)
}

// Validate rejects descriptions no board could be built from.
func (c BoardConfig) Validate() error {
	if c.RouterBase&(BUS_PAGE_SIZE-1) != 0 {
		return fmt.Errorf("router_base $%08X is not page aligned", c.RouterBase)
	}
	if c.MailboxBase&(BUS_PAGE_SIZE-1) != 0 {
		return fmt.Errorf("mailbox_base $%08X is not page aligned", c.MailboxBase)
	}
	routerEnd := uint64(c.RouterBase) + ROUTER_REGION_SIZE
	mboxEnd := uint64(c.MailboxBase) + MBOX_REGION_SIZE
	if uint64(c.RouterBase) < mboxEnd && uint64(c.MailboxBase) < routerEnd {
		return fmt.Errorf("router and mailbox windows overlap")
	}
	if _, err := ParseLogMask(c.Log); err != nil {
		return err
	}
	seen := make(map[int]bool)
	for _, ch := range c.Channels {
		if ch < 0 || ch >= MBOX_CHAN_COUNT {
			return fmt.Errorf("channel %d out of range", ch)
		}
		if seen[ch] {
			return fmt.Errorf("channel %d listed twice", ch)
		}
		seen[ch] = true
	}
	for _, ch := range c.Manual {
		if ch < 0 || ch >= MBOX_CHAN_COUNT || !seen[ch] {
			return fmt.Errorf("manual channel %d has no actor", ch)
		}
	}
	r := c.Routing
	if r.GPUIRQCore < 0 || r.GPUIRQCore >= ROUTER_CORES || r.GPUFIQCore < 0 || r.GPUFIQCore >= ROUTER_CORES {
		return fmt.Errorf("GPU routing core out of range")
	}
	if len(r.TimerControl) > ROUTER_CORES || len(r.MailboxControl) > ROUTER_CORES {
		return fmt.Errorf("routing lists more than %d cores", ROUTER_CORES)
	}
	return nil
}
