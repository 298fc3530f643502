package ctl

import "fmt"

// UploadOptions controls the upload command.
type UploadOptions struct {
	JSON  bool
	Style string
}

// Upload sends a floor-plan image to the daemon and starts a pipeline run.
func Upload(baseURL, filePath string, opts UploadOptions) error {
	style := opts.Style
	if style == "" {
		style = "modern"
	}

	var result struct {
		Message  string `json:"message"`
		Filename string `json:"filename"`
		FileURL  string `json:"file_url"`
		RunID    string `json:"run_id"`
	}
	err := postFile(baseURL, "/upload", "file", filePath, map[string]string{"style": style}, &result)
	if err != nil {
		return err
	}
	if opts.JSON {
		return printJSON(result)
	}

	fmt.Println()
	fmt.Printf("  %s %s\n", colorize(green, "uploaded"), filePath)
	fmt.Printf("  %-10s %s\n", colorize(dim, "Run:"), colorize(bold, result.RunID))
	fmt.Printf("  %-10s %s\n", colorize(dim, "Style:"), style)
	fmt.Printf("  %-10s %s\n", colorize(dim, "Stored:"), result.FileURL)
	fmt.Println()
	fmt.Printf("  %s planctl watch --run %s\n", colorize(dim, "follow with:"), result.RunID)
	fmt.Println()
	return nil
}
