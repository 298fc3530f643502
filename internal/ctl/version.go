package ctl

import "fmt"

// VersionInfo prints the daemon's build information.
func VersionInfo(baseURL string, jsonOut bool) error {
	var v struct {
		Version   string `json:"version"`
		GoVersion string `json:"go_version"`
		BuiltAt   string `json:"built_at"`
	}
	if err := getJSON(baseURL, "/api/version", &v); err != nil {
		return err
	}
	if jsonOut {
		return printJSON(v)
	}

	fmt.Println()
	fmt.Printf("  %-12s %s\n", colorize(dim, "Version:"), v.Version)
	fmt.Printf("  %-12s %s\n", colorize(dim, "Go:"), v.GoVersion)
	fmt.Printf("  %-12s %s\n", colorize(dim, "Built:"), v.BuiltAt)
	fmt.Println()
	return nil
}
