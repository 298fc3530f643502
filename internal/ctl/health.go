package ctl

import (
	"fmt"
	"net/http"
	"strings"
)

// Health queries the detailed health endpoint and prints per-component
// check results. A degraded daemon yields a non-zero exit via the returned
// error.
func Health(baseURL string, jsonOut bool) error {
	url := strings.TrimRight(baseURL, "/") + "/healthz"
	req, err := http.NewRequest(http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	var body struct {
		Healthy bool                      `json:"healthy"`
		Checks  map[string]map[string]any `json:"checks"`
	}
	// 503 still carries the check breakdown, so decode regardless of status.
	if err := decodeJSONAnyStatus(resp, &body); err != nil {
		return err
	}

	if jsonOut {
		if err := printJSON(body); err != nil {
			return err
		}
	} else {
		fmt.Println()
		if body.Healthy {
			fmt.Printf("  %s\n", colorize(green, "healthy"))
		} else {
			fmt.Printf("  %s\n", colorize(red, "degraded"))
		}
		for name, check := range body.Checks {
			ok, _ := check["ok"].(bool)
			mark := colorize(green, "ok")
			detail := ""
			if !ok {
				mark = colorize(red, "FAIL")
				if msg, _ := check["error"].(string); msg != "" {
					detail = "  " + colorize(dim, msg)
				}
			}
			fmt.Printf("    %-14s %s%s\n", name+":", mark, detail)
		}
		fmt.Println()
	}

	if !body.Healthy {
		return fmt.Errorf("daemon reports degraded health")
	}
	return nil
}
