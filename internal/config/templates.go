package config

import (
	"fmt"
	"os"
	"strings"
)

func Template(format string) (string, error) {
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "toml", "":
		return tomlTemplate, nil
	case "yaml", "yml":
		return yamlTemplate, nil
	default:
		return "", fmt.Errorf("unknown config format: %s", format)
	}
}

func WriteTemplate(path, format string, overwrite bool) error {
	template, err := Template(format)
	if err != nil {
		return err
	}
	if !overwrite {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("config already exists: %s", path)
		}
	}
	return os.WriteFile(path, []byte(template), 0o600)
}

const tomlTemplate = `ticks = 96
initial = 0.0
carry = false
on_error = "abort"

[clock]
mode = "step"
start = "2024-01-01T00:00:00Z"
step = "15m"

[source]
static = { load = 3.5, pv = 0.0 }

[sink]
log = true
log_level = "info"

[[pipelines]]
name = "grid"
merge = "overwrite"

  [[pipelines.strategies]]
  name = "base-load"
  kind = "input"
  priority = "very_high"
  params = { input = "load" }

  [[pipelines.strategies]]
  name = "pv-offset"
  kind = "offset"
  priority = "high"
  params = { value = -1.0 }

  [[pipelines.strategies]]
  name = "smooth"
  kind = "ema"
  priority = "medium"
  params = { alpha = 0.3 }

  [[pipelines.strategies]]
  name = "grid-limit"
  kind = "clamp"
  priority = "low"
  params = { min = 0.0, max = 10.0 }
`

const yamlTemplate = `ticks: 96
initial: 0.0
carry: false
on_error: abort

clock:
  mode: step
  start: "2024-01-01T00:00:00Z"
  step: 15m

source:
  static:
    load: 3.5
    pv: 0.0

sink:
  log: true
  log_level: info

pipelines:
  - name: grid
    merge: overwrite
    strategies:
      - name: base-load
        kind: input
        priority: very_high
        params: {input: load}
      - name: pv-offset
        kind: offset
        priority: high
        params: {value: -1.0}
      - name: smooth
        kind: ema
        priority: medium
        params: {alpha: 0.3}
      - name: grid-limit
        kind: clamp
        priority: low
        params: {min: 0.0, max: 10.0}
`
