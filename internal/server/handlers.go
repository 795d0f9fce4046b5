package server

import (
	"encoding/json"
	"fmt"

	"github.com/ironsheep/plate-detect/internal/detection"
	"github.com/ironsheep/plate-detect/internal/imaging"
	"github.com/ironsheep/plate-detect/internal/ocr"
)

// ToolCallParams represents the parameters for a tools/call MCP request.
type ToolCallParams struct {
	// Name is the tool to invoke (e.g., "plate_detect", "image_crop").
	Name string `json:"name"`

	// Arguments contains the tool-specific parameters as JSON.
	Arguments json.RawMessage `json:"arguments"`
}

// handleToolsCall processes a tools/call request and executes the specified tool.
//
// The response wraps the tool result in MCP's content format:
//
//	{
//	  "content": [{"type": "text", "text": "<JSON result>"}]
//	}
//
// Tool execution errors return a JSON-RPC error response with code -32000.
func (s *Server) handleToolsCall(req *MCPRequest) *MCPResponse {
	var params ToolCallParams
	if err := json.Unmarshal(req.Params, &params); err != nil {
		return s.errorResponse(req.ID, -32602, "Invalid params", err.Error())
	}

	result, err := s.executeTool(params.Name, params.Arguments)
	if err != nil {
		return s.errorResponse(req.ID, -32000, "Tool execution failed", err.Error())
	}

	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      req.ID,
		Result: map[string]interface{}{
			"content": []map[string]interface{}{
				{
					"type": "text",
					"text": mustMarshalJSON(result),
				},
			},
		},
	}
}

// executeTool dispatches tool execution to the appropriate handler function.
func (s *Server) executeTool(name string, args json.RawMessage) (interface{}, error) {
	switch name {
	// Plate Detection
	case "plate_detect":
		return s.handlePlateDetect(args)
	case "plate_check_region":
		return s.handlePlateCheckRegion(args)

	// Basic Image Information
	case "image_load":
		return s.handleImageLoad(args)

	// Region Operations
	case "image_crop":
		return s.handleImageCrop(args)

	// Pipeline Stages
	case "image_edge_detect":
		return s.handleImageEdgeDetect(args)

	default:
		return nil, fmt.Errorf("unknown tool: %s", name)
	}
}

// errorResponse creates a JSON-RPC error response with the given details.
func (s *Server) errorResponse(id interface{}, code int, message, data string) *MCPResponse {
	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      id,
		Error: &MCPError{
			Code:    code,
			Message: message,
			Data:    data,
		},
	}
}

// mustMarshalJSON converts a value to pretty-printed JSON string.
// On marshal failure it returns an empty string.
func mustMarshalJSON(v interface{}) string {
	b, _ := json.MarshalIndent(v, "", "  ")
	return string(b)
}

// === Plate Detection Handlers ===

type plateDetectArgs struct {
	Path           string `json:"path"`
	OutputPath     string `json:"output_path"`
	DiagnosticsDir string `json:"diagnostics_dir"`
	IncludeCrop    bool   `json:"include_crop"`
	ReadText       bool   `json:"read_text"`
	Language       string `json:"language"`
}

// PlateDetectResult is the plate_detect payload: the run report plus any
// files written and the optional inline crop.
type PlateDetectResult struct {
	*detection.Report
	OutputPath     string  `json:"output_path,omitempty"`
	DiagnosticsDir string  `json:"diagnostics_dir,omitempty"`
	CropBase64     string  `json:"crop_base64,omitempty"`
	MimeType       string  `json:"mime_type,omitempty"`
	TextConfidence float64 `json:"text_confidence,omitempty"`
}

func (s *Server) handlePlateDetect(args json.RawMessage) (interface{}, error) {
	var a plateDetectArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	if a.Path == "" {
		return nil, fmt.Errorf("path is required")
	}
	img, err := s.cache.Load(a.Path)
	if err != nil {
		return nil, err
	}

	detector := detection.New(s.config)
	detector.Style = s.style
	detector.Logger = s.logger

	det, err := detector.Detect(img)
	if err != nil {
		return nil, err
	}
	defer det.Release()

	result := &PlateDetectResult{Report: det.Report(a.Path)}
	if a.DiagnosticsDir != "" {
		if err := det.SaveDiagnostics(detection.DiagnosticsIn(a.DiagnosticsDir)); err != nil {
			return nil, err
		}
		result.DiagnosticsDir = a.DiagnosticsDir
	}
	if det.Status != detection.StatusFound {
		return result, nil
	}

	if a.OutputPath != "" {
		if err := det.SaveAnnotated(a.OutputPath); err != nil {
			return nil, err
		}
		result.OutputPath = a.OutputPath
	}
	if a.IncludeCrop {
		encoded, err := imaging.EncodePNGBase64(det.Artifacts.Cropped)
		if err != nil {
			return nil, fmt.Errorf("failed to encode cropped plate: %w", err)
		}
		result.CropBase64 = encoded
		result.MimeType = "image/png"
	}
	if a.ReadText {
		text, err := ocr.ReadPlate(det.Artifacts.Cropped, a.Language)
		if err != nil {
			return nil, err
		}
		result.PlateText = text.Text
		result.TextConfidence = text.Confidence
	}
	return result, nil
}

type plateCheckRegionArgs struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

// RegionCheck reports how the acceptance policy judges a box size.
type RegionCheck struct {
	Width    int              `json:"width"`
	Height   int              `json:"height"`
	Aspect   float64          `json:"aspect"`
	Accepted bool             `json:"accepted"`
	Policy   detection.Policy `json:"policy"`
}

func (s *Server) handlePlateCheckRegion(args json.RawMessage) (interface{}, error) {
	var a plateCheckRegionArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	check := &RegionCheck{
		Width:    a.Width,
		Height:   a.Height,
		Accepted: s.config.Policy.Accept(a.Width, a.Height),
		Policy:   s.config.Policy,
	}
	if a.Height > 0 {
		check.Aspect = float64(a.Width) / float64(a.Height)
	}
	return check, nil
}

// === Basic Image Information Handlers ===

type imageLoadArgs struct {
	Path string `json:"path"`
}

func (s *Server) handleImageLoad(args json.RawMessage) (interface{}, error) {
	var a imageLoadArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	return imaging.LoadImageInfo(s.cache, a.Path)
}

// === Region Operation Handlers ===

type imageCropArgs struct {
	Path  string  `json:"path"`
	X1    int     `json:"x1"`
	Y1    int     `json:"y1"`
	X2    int     `json:"x2"`
	Y2    int     `json:"y2"`
	Scale float64 `json:"scale"`
}

func (s *Server) handleImageCrop(args json.RawMessage) (interface{}, error) {
	var a imageCropArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	if a.Scale == 0 {
		a.Scale = 1.0
	}
	img, err := s.cache.Load(a.Path)
	if err != nil {
		return nil, err
	}
	return imaging.CropEncoded(img, a.X1, a.Y1, a.X2, a.Y2, a.Scale)
}

// === Pipeline Stage Handlers ===

type imageEdgeDetectArgs struct {
	Path          string `json:"path"`
	ThresholdLow  int    `json:"threshold_low"`
	ThresholdHigh int    `json:"threshold_high"`
	ReduceNoise   *bool  `json:"reduce_noise"`
}

func (s *Server) handleImageEdgeDetect(args json.RawMessage) (interface{}, error) {
	var a imageEdgeDetectArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	if a.ThresholdLow == 0 {
		a.ThresholdLow = imaging.DefaultCannyLow
	}
	if a.ThresholdHigh == 0 {
		a.ThresholdHigh = imaging.DefaultCannyHigh
	}
	reduceNoise := true
	if a.ReduceNoise != nil {
		reduceNoise = *a.ReduceNoise
	}
	img, err := s.cache.Load(a.Path)
	if err != nil {
		return nil, err
	}
	return imaging.EdgeDetect(img, a.ThresholdLow, a.ThresholdHigh, reduceNoise)
}
