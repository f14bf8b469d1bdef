// Package recognize resolves observed face encodings to enrolled identities.
// Face detection and vector extraction are delegated to an external encoder
// service; this package owns the matching policy.
package recognize

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

var (
	// ErrNoFaceDetected is returned when the encoder found no face in the image.
	ErrNoFaceDetected = errors.New("no face detected")

	// ErrMultipleFaces is returned by enrollment when more than one face was
	// detected. Enrollment requires exactly one face; attendance matching
	// handles any number of faces.
	ErrMultipleFaces = errors.New("multiple faces detected")
)

// Region is a face bounding box in pixel coordinates.
type Region struct {
	X      int `json:"x"`
	Y      int `json:"y"`
	Width  int `json:"width"`
	Height int `json:"height"`
}

/// Detection is one face found in an image: its bounding region and encoding.
type Detection struct {
	Region   Region
	Encoding []float32
}

// Encoder extracts face encodings from images. Implementations must return
// ErrNoFaceDetected when the image contains no face.
type Encoder interface {
	// Detect finds all faces in the image and returns their encodings.
	Detect(ctx context.Context, imageData []byte) ([]Detection, error)
}

const defaultEncoderTimeout = 30 * time.Second

// HTTPEncoder talks to a face encoding sidecar over HTTP. The sidecar
// accepts a base64 image and returns one region plus fixed-length vector
// per detected face.
type HTTPEncoder struct {
	parsedURL *url.URL
	dim       int
	client    *http.Client
}

// NewHTTPEncoder creates an encoder client for the given base URL. dim is
// the expected encoding dimension; responses with a different dimension are
// rejected.
func NewHTTPEncoder(baseURL string, dim int) (*HTTPEncoder, error) {
	parsed, err := url.Parse(strings.TrimSuffix(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("invalid encoder URL: %w", err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return nil, fmt.Errorf("invalid encoder URL scheme %q: must be http or https", parsed.Scheme)
	}
	if parsed.Host == "" {
		return nil, errors.New("invalid encoder URL: missing host")
	}
	return &HTTPEncoder{
		parsedURL: parsed,
		dim:       dim,
		client:    &http.Client{Timeout: defaultEncoderTimeout},
	}, nil
}

type encodeRequest struct {
	Image string `json:"image"` // base64-encoded image bytes
}

type encodeResponse struct {
	Faces []struct {
		Region   Region    `json:"region"`
		Encoding []float32 `json:"encoding"`
	} `json:"faces"`
}

// Detect sends the image to the sidecar and returns one Detection per face.
func (e *HTTPEncoder) Detect(ctx context.Context, imageData []byte) ([]Detection, error) {
	body, err := json.Marshal(encodeRequest{
		Image: base64.StdEncoding.EncodeToString(imageData),
	})
	if err != nil {
		return nil, fmt.Errorf("encoding request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.parsedURL.String()+"/v1/encode", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("creating encoder request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := e.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("calling encoder: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("encoder returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(data)))
	}

	var parsed encodeResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("decoding encoder response: %w", err)
	}

	if len(parsed.Faces) == 0 {
		return nil, ErrNoFaceDetected
	}

	detections := make([]Detection, 0, len(parsed.Faces))
	for i, f := range parsed.Faces {
		if len(f.Encoding) != e.dim {
			return nil, fmt.Errorf("encoder returned %d-dim encoding for face %d, expected %d", len(f.Encoding), i, e.dim)
		}
		detections = append(detections, Detection{Region: f.Region, Encoding: f.Encoding})
	}
	return detections, nil
}

// EnrollmentEncoding extracts the single face encoding required to enroll an
// identity. More than one detected face is an explicit rejection.
func EnrollmentEncoding(ctx context.Context, encoder Encoder, imageData []byte) ([]float32, error) {
	detections, err := encoder.Detect(ctx, imageData)
	if err != nil {
		return nil, err
	}
	if len(detections) > 1 {
		return nil, ErrMultipleFaces
	}
	return detections[0].Encoding, nil
}
