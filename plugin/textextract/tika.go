// Package textextract turns source documents into per-page content units.
// Binary formats are rendered by Apache Tika, once for page text and once
// for tables; plain text is read locally.
package textextract

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/pkg/errors"
)

// SupportedMimeTypes lists the formats sent to Tika.
var SupportedMimeTypes = []string{
	"application/pdf",
	"application/msword",
	"application/vnd.openxmlformats-officedocument.wordprocessingml.document",
	"application/vnd.ms-excel",
	"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
	"application/vnd.ms-powerpoint",
	"application/vnd.openxmlformats-officedocument.presentationml.presentation",
	"application/rtf",
}

// Config holds the Tika client configuration
type Config struct {
	// TikaServerURL is the URL of the Tika server (e.g., http://localhost:9998)
	TikaServerURL string
	// TikaJarPath is the path to tika-app.jar (for embedded mode)
	TikaJarPath string
	// JavaPath is the path to the java executable
	JavaPath string
	// Timeout is the HTTP timeout for Tika server requests
	Timeout time.Duration
	// UseEmbedded skips the server and runs java -jar tika-app.jar
	UseEmbedded bool
}

// DefaultConfig returns the default Tika configuration
func DefaultConfig() *Config {
	return &Config{
		TikaServerURL: "http://localhost:9998",
		JavaPath:      "java",
		Timeout:       60 * time.Second,
	}
}

// Rendering selects the markup Tika returns for a document.
type Rendering struct {
	accept  string // Accept header sent to the server
	jarFlag string // tika-app.jar output flag
}

var (
	// RenderHTML is Tika's HTML view, used for page text.
	RenderHTML = Rendering{accept: "text/html", jarFlag: "-h"}
	// RenderXML is Tika's XHTML view, used for tables.
	RenderXML = Rendering{accept: "text/xml", jarFlag: "-x"}
)

// Client renders documents to XHTML through Tika.
type Client struct {
	config     *Config
	httpClient *http.Client
}

// NewClient creates a new Tika client
func NewClient(config *Config) *Client {
	if config == nil {
		config = DefaultConfig()
	}
	if config.JavaPath == "" {
		config.JavaPath = "java"
	}

	return &Client{
		config: config,
		httpClient: &http.Client{
			Timeout: config.Timeout,
		},
	}
}

// ExtractXHTML returns a rendering of a document. Each call is a separate
// Tika request.
func (c *Client) ExtractXHTML(ctx context.Context, data []byte, contentType string, rendering Rendering) ([]byte, error) {
	if !c.IsSupported(contentType) {
		return nil, errors.Errorf("unsupported content type: %s", contentType)
	}

	if c.config.UseEmbedded && c.config.TikaJarPath != "" {
		return c.extractEmbedded(ctx, data, rendering)
	}
	return c.extractFromServer(ctx, data, contentType, rendering)
}

// extractFromServer asks the Tika server for markup, falling back to the jar.
func (c *Client) extractFromServer(ctx context.Context, data []byte, contentType string, rendering Rendering) ([]byte, error) {
	if c.config.TikaServerURL != "" {
		req, err := http.NewRequestWithContext(ctx, http.MethodPut,
			strings.TrimRight(c.config.TikaServerURL, "/")+"/tika",
			bytes.NewReader(data))
		if err != nil {
			return nil, errors.Wrap(err, "failed to create request")
		}

		req.Header.Set("Content-Type", contentType)
		req.Header.Set("Accept", rendering.accept)

		resp, err := c.httpClient.Do(req)
		if err != nil {
			slog.Warn("Tika server request failed, trying fallback", "error", err)
		} else {
			defer resp.Body.Close()

			if resp.StatusCode != http.StatusOK {
				body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
				return nil, errors.Errorf("tika server returned status %d: %s", resp.StatusCode, string(body))
			}

			markup, err := io.ReadAll(resp.Body)
			if err != nil {
				return nil, errors.Wrap(err, "failed to read response")
			}
			return markup, nil
		}
	}

	if c.config.TikaJarPath != "" {
		return c.extractEmbedded(ctx, data, rendering)
	}

	return nil, errors.New("no Tika server or jar available")
}

// extractEmbedded runs tika-app.jar on a temp copy of the document.
func (c *Client) extractEmbedded(ctx context.Context, data []byte, rendering Rendering) ([]byte, error) {
	inputFile, err := os.CreateTemp("", "tika_input_*")
	if err != nil {
		return nil, errors.Wrap(err, "failed to create temp input file")
	}
	defer func() {
		inputFile.Close()
		os.Remove(inputFile.Name())
	}()

	if _, err := inputFile.Write(data); err != nil {
		return nil, errors.Wrap(err, "failed to write input file")
	}

	cmd := exec.CommandContext(ctx, c.config.JavaPath, "-jar", c.config.TikaJarPath, rendering.jarFlag, inputFile.Name())
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		slog.Warn("Tika embedded failed", "error", err, "stderr", stderr.String())
		return nil, errors.Wrap(err, "tika-app.jar failed")
	}
	return stdout.Bytes(), nil
}

// IsAvailable checks if Tika is available
func (c *Client) IsAvailable(ctx context.Context) bool {
	if c.config.TikaServerURL != "" {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, strings.TrimRight(c.config.TikaServerURL, "/")+"/tika", nil)
		if err == nil {
			resp, err := c.httpClient.Do(req)
			if err == nil {
				resp.Body.Close()
				return resp.StatusCode == http.StatusOK
			}
		}
	}

	if c.config.TikaJarPath != "" {
		if _, err := os.Stat(c.config.TikaJarPath); err == nil {
			cmd := exec.CommandContext(ctx, c.config.JavaPath, "-version")
			return cmd.Run() == nil
		}
	}

	return false
}

// IsSupported checks if a MIME type is rendered through Tika
func (c *Client) IsSupported(contentType string) bool {
	for _, supported := range SupportedMimeTypes {
		if strings.EqualFold(contentType, supported) {
			return true
		}
	}
	return false
}
