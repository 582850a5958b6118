package config

import (
	"errors"
	"fmt"
	"net"
	"strconv"
	"strings"
	"time"

	"iwled/internal/led"

	"gopkg.in/ini.v1"
)

// DefaultPath is used when no config path is given on the command line.
const DefaultPath = "/etc/iwled/iwled.conf"

const (
	KeyDumpDelay        = "dump_delay"
	KeyLowSignalCap     = "low_signal_cap"
	KeyNoSignalTrigger  = "no_signal_trigger"
	KeyNoSignalDelay    = "no_signal_delay"
	KeySignalTrigger    = "signal_trigger"
	KeySignalDelay      = "signal_delay"
	KeyLowSignalTrigger = "low_signal_trigger"
	KeyLowSignalDelay   = "low_signal_delay"
	KeyBSSID            = "bssid"
	KeyLED              = "led"
)

// Long-form spellings accepted for the three keys whose short names come
// from the first iwled releases.
var keyAliases = map[string]string{
	"cycle_interval":  KeyDumpDelay,
	"station_address": KeyBSSID,
	"indicator":       KeyLED,
}

var globalKeys = []string{
	KeyDumpDelay,
	KeyLowSignalCap,
	KeyNoSignalTrigger,
	KeyNoSignalDelay,
	KeySignalTrigger,
	KeySignalDelay,
	KeyLowSignalTrigger,
	KeyLowSignalDelay,
}

var clientKeys = []string{
	KeyBSSID,
	KeyLED,
	KeyLowSignalCap,
	KeyNoSignalTrigger,
	KeyNoSignalDelay,
	KeySignalTrigger,
	KeySignalDelay,
	KeyLowSignalTrigger,
	KeyLowSignalDelay,
}

// Mode is a trigger and its base delay for one signal state.
type Mode struct {
	Trigger string
	Delay   uint64
}

// Global holds the defaults from the unnamed section. All fields are required.
type Global struct {
	CycleInterval time.Duration
	LowSignalCap  uint64
	NoSignal      Mode
	LowSignal     Mode
	Signal        Mode
}

// ModeOverride is a per-client Mode; nil fields fall back to Global.
type ModeOverride struct {
	Trigger *string
	Delay   *uint64
}

// Client is one monitored station and the LED it drives.
type Client struct {
	Name         string
	Address      string
	LEDName      string
	LED          led.Indicator
	LowSignalCap *uint64
	NoSignal     ModeOverride
	LowSignal    ModeOverride
	Signal       ModeOverride
}

// KeyValue is a single raw entry as it appeared in the file.
type KeyValue struct {
	Key   string
	Value string
}

// Section is a raw config section. Name is empty for the global section.
type Section struct {
	Name string
	Keys []KeyValue
}

// LEDResolver turns an LED name from the config into a device handle.
type LEDResolver func(name string) (led.Indicator, error)

// SysfsResolver resolves LED names under classDir.
func SysfsResolver(classDir string) LEDResolver {
	return func(name string) (led.Indicator, error) {
		return led.Resolve(classDir, name)
	}
}

// Load reads path and builds the monitoring configuration.
func Load(path string, resolve LEDResolver) (Global, []Client, error) {
	sections, err := ReadSections(path)
	if err != nil {
		return Global{}, nil, err
	}
	return Build(sections, resolve)
}

// ReadSections parses an INI file. Keys above the first header form the
// global section; every named section is kept separately, even when names
// repeat.
func ReadSections(path string) ([]Section, error) {
	f, err := ini.LoadSources(ini.LoadOptions{AllowNonUniqueSections: true}, path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config %s: %w", path, err)
	}

	var sections []Section
	for _, sec := range f.Sections() {
		name := sec.Name()
		if name == ini.DefaultSection {
			name = ""
		}
		// ini always reports an empty DEFAULT section
		if name == "" && len(sec.Keys()) == 0 {
			continue
		}

		s := Section{Name: name}
		for _, k := range sec.Keys() {
			s.Keys = append(s.Keys, KeyValue{Key: k.Name(), Value: k.String()})
		}
		sections = append(sections, s)
	}

	return sections, nil
}

// Build validates raw sections in one pass. Every unnamed section feeds the
// global defaults; every named section becomes a client in file order.
func Build(sections []Section, resolve LEDResolver) (Global, []Client, error) {
	var globalRaw []KeyValue
	var clientSections []Section
	for _, s := range sections {
		if s.Name == "" {
			globalRaw = append(globalRaw, s.Keys...)
			continue
		}
		clientSections = append(clientSections, s)
	}

	global, err := buildGlobal(globalRaw)
	if err != nil {
		return Global{}, nil, err
	}

	clients := make([]Client, 0, len(clientSections))
	for _, s := range clientSections {
		c, err := buildClient(s, resolve)
		if err != nil {
			return Global{}, nil, err
		}
		clients = append(clients, c)
	}

	return global, clients, nil
}

func buildGlobal(raw []KeyValue) (Global, error) {
	values, err := collect("", raw, globalKeys)
	if err != nil {
		return Global{}, err
	}
	for _, key := range globalKeys {
		if _, ok := values[key]; !ok {
			return Global{}, newError(ErrMissingField, "", key, nil)
		}
	}

	p := parser{values: values}
	g := Global{
		LowSignalCap: p.number(KeyLowSignalCap),
		NoSignal:     Mode{Trigger: p.trigger(KeyNoSignalTrigger), Delay: p.number(KeyNoSignalDelay)},
		LowSignal:    Mode{Trigger: p.trigger(KeyLowSignalTrigger), Delay: p.number(KeyLowSignalDelay)},
		Signal:       Mode{Trigger: p.trigger(KeySignalTrigger), Delay: p.number(KeySignalDelay)},
	}
	if secs := p.number(KeyDumpDelay); p.err == nil {
		if secs == 0 {
			p.fail(KeyDumpDelay, errors.New("must be at least 1 second"))
		}
		g.CycleInterval = time.Duration(secs) * time.Second
	}
	if p.err != nil {
		return Global{}, p.err
	}
	return g, nil
}

func buildClient(s Section, resolve LEDResolver) (Client, error) {
	values, err := collect(s.Name, s.Keys, clientKeys)
	if err != nil {
		return Client{}, err
	}
	for _, key := range []string{KeyBSSID, KeyLED} {
		if _, ok := values[key]; !ok {
			return Client{}, newError(ErrMissingField, s.Name, key, nil)
		}
	}

	p := parser{section: s.Name, values: values}
	c := Client{
		Name:         s.Name,
		Address:      p.address(KeyBSSID),
		LEDName:      values[KeyLED].Value,
		LowSignalCap: p.optNumber(KeyLowSignalCap),
		NoSignal:     ModeOverride{Trigger: p.optTrigger(KeyNoSignalTrigger), Delay: p.optNumber(KeyNoSignalDelay)},
		LowSignal:    ModeOverride{Trigger: p.optTrigger(KeyLowSignalTrigger), Delay: p.optNumber(KeyLowSignalDelay)},
		Signal:       ModeOverride{Trigger: p.optTrigger(KeySignalTrigger), Delay: p.optNumber(KeySignalDelay)},
	}
	if p.err != nil {
		return Client{}, p.err
	}

	device, err := resolve(c.LEDName)
	if err != nil {
		return Client{}, newError(ErrDeviceNotFound, s.Name, values[KeyLED].Key, err)
	}
	c.LED = device

	return c, nil
}

// collect maps canonical key names to their raw entries, rejecting keys
// outside allowed. A repeated key keeps its last value.
func collect(section string, raw []KeyValue, allowed []string) (map[string]KeyValue, error) {
	values := make(map[string]KeyValue, len(raw))
	for _, kv := range raw {
		key := canonicalKey(kv.Key)
		if !contains(allowed, key) {
			return nil, newError(ErrUnknownKey, section, kv.Key, nil)
		}
		values[key] = kv
	}
	return values, nil
}

func canonicalKey(key string) string {
	if alias, ok := keyAliases[key]; ok {
		return alias
	}
	return key
}

func contains(keys []string, key string) bool {
	for _, k := range keys {
		if k == key {
			return true
		}
	}
	return false
}

// NormalizeAddress returns the lowercase colon-separated form of a MAC address.
func NormalizeAddress(raw string) (string, error) {
	hw, err := net.ParseMAC(strings.TrimSpace(raw))
	if err != nil {
		return "", err
	}
	return hw.String(), nil
}

// parser converts raw values and remembers the first failure, so a whole
// section can be read without checking errors after every field.
type parser struct {
	section string
	values  map[string]KeyValue
	err     error
}

func (p *parser) fail(key string, err error) {
	if p.err != nil {
		return
	}
	// report the key as the user spelled it
	if kv, ok := p.values[key]; ok {
		key = kv.Key
	}
	p.err = newError(ErrInvalidValue, p.section, key, err)
}

func (p *parser) number(key string) uint64 {
	v, err := strconv.ParseUint(strings.TrimSpace(p.values[key].Value), 10, 64)
	if err != nil {
		p.fail(key, err)
		return 0
	}
	return v
}

func (p *parser) optNumber(key string) *uint64 {
	if _, ok := p.values[key]; !ok {
		return nil
	}
	v := p.number(key)
	return &v
}

func (p *parser) trigger(key string) string {
	v := strings.TrimSpace(p.values[key].Value)
	if v == "" {
		p.fail(key, errors.New("empty trigger"))
	}
	return v
}

func (p *parser) optTrigger(key string) *string {
	if _, ok := p.values[key]; !ok {
		return nil
	}
	v := p.trigger(key)
	return &v
}

func (p *parser) address(key string) string {
	addr, err := NormalizeAddress(p.values[key].Value)
	if err != nil {
		p.fail(key, err)
		return ""
	}
	return addr
}
