package server

// Tool represents an MCP tool definition
type Tool struct {
	Name        string                 `json:"name"`
	Description string                 `json:"description"`
	InputSchema map[string]interface{} `json:"inputSchema"`
}

// GetToolDefinitions returns all available tools
func GetToolDefinitions() []Tool {
	return []Tool{
		// Plate Detection
		{
			Name:        "plate_detect",
			Description: "Search an image for licence plate candidates using an adaptive binarization threshold. Returns the threshold that succeeded, the best candidate box, and every accepted candidate. A search that finds nothing reports status \"not_found\".",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": map[string]interface{}{
						"type":        "string",
						"description": "Absolute path to the image file",
					},
					"output_path": map[string]interface{}{
						"type":        "string",
						"description": "Optional path to write the annotated image to",
					},
					"diagnostics_dir": map[string]interface{}{
						"type":        "string",
						"description": "Optional directory for grayscale, binary, canny, dilate and cropped images",
					},
					"include_crop": map[string]interface{}{
						"type":        "boolean",
						"description": "Return the cropped plate as base64 PNG. Default false",
						"default":     false,
					},
					"read_text": map[string]interface{}{
						"type":        "boolean",
						"description": "Run OCR on the cropped plate. Default false",
						"default":     false,
					},
					"language": map[string]interface{}{
						"type":        "string",
						"description": "OCR language code. Default 'eng'",
						"default":     "eng",
					},
				},
				"required": []string{"path"},
			},
		},
		{
			Name:        "plate_check_region",
			Description: "Check whether a bounding box of the given size would be accepted as a plate candidate, and report its aspect ratio.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"width": map[string]interface{}{
						"type":        "integer",
						"description": "Bounding box width in pixels",
					},
					"height": map[string]interface{}{
						"type":        "integer",
						"description": "Bounding box height in pixels",
					},
				},
				"required": []string{"width", "height"},
			},
		},

		// Basic Image Information
		{
			Name:        "image_load",
			Description: "Load an image file and return its dimensions and format. The decoded image is cached for subsequent operations.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": map[string]interface{}{
						"type":        "string",
						"description": "Absolute path to the image file",
					},
				},
				"required": []string{"path"},
			},
		},

		// Region Operations
		{
			Name:        "image_crop",
			Description: "Crop a rectangular region from an image and return it as base64-encoded PNG. Use this to inspect a candidate box more closely.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": map[string]interface{}{
						"type":        "string",
						"description": "Absolute path to the image file",
					},
					"x1": map[string]interface{}{
						"type":        "integer",
						"description": "Left edge X coordinate (0-based)",
					},
					"y1": map[string]interface{}{
						"type":        "integer",
						"description": "Top edge Y coordinate (0-based)",
					},
					"x2": map[string]interface{}{
						"type":        "integer",
						"description": "Right edge X coordinate (exclusive)",
					},
					"y2": map[string]interface{}{
						"type":        "integer",
						"description": "Bottom edge Y coordinate (exclusive)",
					},
					"scale": map[string]interface{}{
						"type":        "number",
						"description": "Optional scale factor (e.g., 2.0 to double size). Default 1.0",
						"default":     1.0,
					},
				},
				"required": []string{"path", "x1", "y1", "x2", "y2"},
			},
		},

		// Pipeline Stages
		{
			Name:        "image_edge_detect",
			Description: "Run Canny edge detection and return the edge map as base64 PNG. This is the edge stage the plate search uses.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": map[string]interface{}{
						"type":        "string",
						"description": "Absolute path to the image file",
					},
					"threshold_low": map[string]interface{}{
						"type":        "integer",
						"description": "Lower hysteresis threshold. Default 50",
						"default":     50,
					},
					"threshold_high": map[string]interface{}{
						"type":        "integer",
						"description": "Upper hysteresis threshold. Default 150",
						"default":     150,
					},
					"reduce_noise": map[string]interface{}{
						"type":        "boolean",
						"description": "Apply a Gaussian blur before edge detection. Default true",
						"default":     true,
					},
				},
				"required": []string{"path"},
			},
		},
	}
}

// handleToolsList returns the list of available tools
func (s *Server) handleToolsList(req *MCPRequest) *MCPResponse {
	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      req.ID,
		Result: map[string]interface{}{
			"tools": GetToolDefinitions(),
		},
	}
}
