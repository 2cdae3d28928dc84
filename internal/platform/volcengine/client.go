package volcengine

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/pixelforge/imagegen-api/internal/generation"
)

const (
	defaultHost    = "visual.volcengineapi.com"
	defaultRegion  = "cn-beijing"
	serviceName    = "cv"
	apiAction      = "CVProcess"
	apiVersion     = "2022-08-31"
	requestTimeout = 120 * time.Second
)

// Config holds the credentials and region for the Volcengine visual
// API.
type Config struct {
	AccessKey string
	SecretKey string
	Region    string
}

// Client implements generation.Generator against the Volcengine visual
// API. Each generated image is one CVProcess call; a call that fails is
// captured as an error sub-result rather than failing the whole batch.
type Client struct {
	config     Config
	httpClient *http.Client
	logger     *slog.Logger
}

// New creates a Client from the given credentials.
// Returns generation.ErrInvalidConfig if either key is missing.
func New(config Config, logger *slog.Logger) (*Client, error) {
	if logger == nil {
		return nil, errors.New("logger cannot be nil")
	}
	if config.AccessKey == "" || config.SecretKey == "" {
		return nil, fmt.Errorf("%w: access key and secret key are required", generation.ErrInvalidConfig)
	}
	if config.Region == "" {
		config.Region = defaultRegion
	}

	return &Client{
		config:     config,
		httpClient: &http.Client{Timeout: requestTimeout},
		logger:     logger.With("component", "volcengine_client"),
	}, nil
}

// TextToImage generates req.NumImages images, one CVProcess call each.
// When a seed is set it is incremented per image so a batch does not
// collapse into identical outputs.
func (c *Client) TextToImage(
	ctx context.Context,
	req generation.TextToImageRequest,
) (*generation.TextToImageResult, error) {
	numImages := req.NumImages
	if numImages < 1 {
		numImages = 1
	}

	results := make([]map[string]any, 0, numImages)
	success := true

	for i := 0; i < numImages; i++ {
		payload := textToImagePayload(req, i)

		result, err := c.cvProcess(ctx, payload)
		if err != nil {
			c.logger.Warn("text2image call failed", "index", i, "error", err)
			results = append(results, map[string]any{"error": err.Error()})
			success = false
			continue
		}
		if _, failed := result["error"]; failed {
			success = false
		}
		results = append(results, result)
	}

	return &generation.TextToImageResult{
		Success: success,
		Results: results,
		Count:   len(results),
	}, nil
}

// ImageToImage transforms the provided base64-encoded image in a single
// CVProcess call.
func (c *Client) ImageToImage(
	ctx context.Context,
	req generation.ImageToImageRequest,
) (*generation.ImageToImageResult, error) {
	payload := imageToImagePayload(req)

	result, err := c.cvProcess(ctx, payload)
	if err != nil {
		return &generation.ImageToImageResult{
			Success: false,
			Result:  map[string]any{"error": err.Error()},
		}, nil
	}

	_, failed := result["error"]
	return &generation.ImageToImageResult{
		Success: !failed,
		Result:  result,
	}, nil
}

// textToImagePayload builds the CVProcess request body for one image of
// a text-to-image batch.
func textToImagePayload(req generation.TextToImageRequest, index int) map[string]any {
	payload := map[string]any{
		"req_key":    "text2image",
		"prompt":     req.Prompt,
		"width":      req.Width,
		"height":     req.Height,
		"scale":      req.Scale,
		"steps":      req.Steps,
		"return_url": true,
		"logo_info":  map[string]any{"add_logo": false},
	}

	if req.NegativePrompt != "" {
		payload["negative_prompt"] = req.NegativePrompt
	}
	if req.Seed >= 0 {
		payload["seed"] = req.Seed + int64(index)
	}
	if req.StylePreset != "" && req.StylePreset != "none" {
		payload["style_preset"] = req.StylePreset
	}

	return payload
}

// imageToImagePayload builds the CVProcess request body for an
// image-to-image call. A data-URI prefix on the input image is stripped
// before transmission.
func imageToImagePayload(req generation.ImageToImageRequest) map[string]any {
	image := req.Image
	if strings.HasPrefix(image, "data:image") {
		if i := strings.Index(image, ","); i >= 0 {
			image = image[i+1:]
		}
	}

	payload := map[string]any{
		"req_key":            "img2img",
		"prompt":             req.Prompt,
		"binary_data_base64": []string{image},
		"strength":           req.Strength,
		"scale":              req.Scale,
		"steps":              req.Steps,
		"return_url":         true,
		"logo_info":          map[string]any{"add_logo": false},
	}

	if req.NegativePrompt != "" {
		payload["negative_prompt"] = req.NegativePrompt
	}
	if req.Seed >= 0 {
		payload["seed"] = req.Seed
	}
	if req.StylePreset != "" && req.StylePreset != "none" {
		payload["style_preset"] = req.StylePreset
	}

	return payload
}

// cvProcess performs one signed CVProcess call and decodes the response
// body into a generic map. Non-2xx answers are reported as an error
// entry in the returned map so callers treat them like any other
// provider-side failure.
func (c *Client) cvProcess(ctx context.Context, payload map[string]any) (map[string]any, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to encode request payload: %w", err)
	}

	query := url.Values{}
	query.Set("Action", apiAction)
	query.Set("Version", apiVersion)

	endpoint := url.URL{
		Scheme:   "https",
		Host:     defaultHost,
		Path:     "/",
		RawQuery: query.Encode(),
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint.String(), bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	c.sign(req, body)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", generation.ErrProviderUnavailable, err)
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			c.logger.Warn("failed to close response body", "error", err)
		}
	}()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	var result map[string]any
	if err := json.Unmarshal(raw, &result); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		if _, ok := result["error"]; !ok {
			result["error"] = fmt.Sprintf("provider returned status %d", resp.StatusCode)
		}
	}

	return result, nil
}

// sign adds the HMAC-SHA256 request signature headers the Volcengine
// open API requires. The scheme follows the signature v4 construction:
// a canonical request is hashed into a string to sign, and the
// signature is derived through the date/region/service key chain.
func (c *Client) sign(req *http.Request, body []byte) {
	now := time.Now().UTC()
	date := now.Format("20060102T150405Z")
	shortDate := now.Format("20060102")

	payloadHash := hexSHA256(body)

	req.Header.Set("Host", defaultHost)
	req.Header.Set("X-Date", date)
	req.Header.Set("X-Content-Sha256", payloadHash)

	signedHeaderNames := []string{"content-type", "host", "x-content-sha256", "x-date"}
	sort.Strings(signedHeaderNames)

	var canonicalHeaders strings.Builder
	for _, name := range signedHeaderNames {
		value := req.Header.Get(name)
		if name == "host" {
			value = defaultHost
		}
		canonicalHeaders.WriteString(name)
		canonicalHeaders.WriteString(":")
		canonicalHeaders.WriteString(strings.TrimSpace(value))
		canonicalHeaders.WriteString("\n")
	}
	signedHeaders := strings.Join(signedHeaderNames, ";")

	canonicalRequest := strings.Join([]string{
		req.Method,
		"/",
		req.URL.RawQuery,
		canonicalHeaders.String(),
		signedHeaders,
		payloadHash,
	}, "\n")

	credentialScope := strings.Join([]string{shortDate, c.config.Region, serviceName, "request"}, "/")
	stringToSign := strings.Join([]string{
		"HMAC-SHA256",
		date,
		credentialScope,
		hexSHA256([]byte(canonicalRequest)),
	}, "\n")

	signingKey := hmacSHA256(
		hmacSHA256(
			hmacSHA256(
				hmacSHA256([]byte(c.config.SecretKey), shortDate),
				c.config.Region),
			serviceName),
		"request")
	signature := hex.EncodeToString(hmacSHA256(signingKey, stringToSign))

	req.Header.Set("Authorization", fmt.Sprintf(
		"HMAC-SHA256 Credential=%s/%s, SignedHeaders=%s, Signature=%s",
		c.config.AccessKey, credentialScope, signedHeaders, signature,
	))
}

func hexSHA256(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

func hmacSHA256(key []byte, data string) []byte {
	mac := hmac.New(sha256.New, key)
	mac.Write([]byte(data))
	return mac.Sum(nil)
}
