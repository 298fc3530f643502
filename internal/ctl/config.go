package ctl

import "fmt"

// Config fetches and prints the daemon's running configuration.
func Config(baseURL string, jsonOut bool) error {
	var cfg map[string]any
	if err := getJSON(baseURL, "/api/config", &cfg); err != nil {
		return err
	}
	// Configuration is nested TOML sections; indented JSON is the clearest
	// rendering in both modes.
	return printJSON(cfg)
}

// ConfigList prints the named configuration profiles available on the
// daemon host.
func ConfigList(baseURL string, jsonOut bool) error {
	var body struct {
		ConfigDir string `json:"config_dir"`
		Profiles  []struct {
			Name string `json:"name"`
			Path string `json:"path"`
		} `json:"profiles"`
	}
	if err := getJSON(baseURL, "/api/config-profiles", &body); err != nil {
		return err
	}
	if jsonOut {
		return printJSON(body)
	}

	fmt.Println()
	fmt.Printf("  %s %s\n", colorize(dim, "Config dir:"), body.ConfigDir)
	if len(body.Profiles) == 0 {
		fmt.Println(colorize(dim, "  no profiles found"))
	}
	for _, p := range body.Profiles {
		fmt.Printf("    %-16s %s\n", colorize(bold, p.Name), colorize(dim, p.Path))
	}
	fmt.Println()
	return nil
}

// ReloadOptions controls the reload command.
type ReloadOptions struct {
	JSON    bool
	Profile string
}

// Reload asks the daemon to re-read its configuration, optionally switching
// to a named profile.
func Reload(baseURL string, opts ReloadOptions) error {
	var body any
	if opts.Profile != "" {
		body = map[string]string{"profile": opts.Profile}
	}

	var result struct {
		OK      bool   `json:"ok"`
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	if err := postJSON(baseURL, "/api/reload", body, &result); err != nil {
		return err
	}
	if opts.JSON {
		return printJSON(result)
	}
	if !result.OK {
		return fmt.Errorf("reload failed: %s", result.Error)
	}
	fmt.Printf("  %s %s\n", colorize(green, "ok"), result.Message)
	return nil
}
