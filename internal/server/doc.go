// Package server implements an MCP (Model Context Protocol) server around the plate detector.
//
// The server speaks JSON-RPC 2.0 over stdio so that MCP clients can run plate
// detection and inspect the supporting image operations.
//
// # Protocol
//
//   - Input: JSON-RPC requests on stdin (one per line)
//   - Output: JSON-RPC responses on stdout
//
// Supported MCP methods:
//   - initialize: Protocol handshake
//   - tools/list: Enumerate available tools
//   - tools/call: Execute a tool with arguments
//   - ping: Health check
//
// # Available Tools
//
//   - plate_detect: Run the full detector on an image file
//   - plate_check_region: Apply the acceptance policy to a width and height
//   - image_load: Load an image and get metadata
//   - image_crop: Extract a rectangular region
//   - image_edge_detect: Canny edge map
//
// # Image Caching
//
// Decoded images are cached by path and reused across tool calls. Detection
// works on a clone, so cached images are never annotated.
//
// # Error Handling
//
// Tool execution errors are returned as JSON-RPC error responses with:
//   - code: -32000 (tool execution failure) or standard JSON-RPC codes
//   - message: Human-readable error description
//   - data: The Go error string
//
// A search that finds no plate is not an error: plate_detect returns a
// report with status "not_found".
package server
