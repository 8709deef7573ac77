package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/mapgrid/gisbridge/pkg/protocol"
)

// runCommand dials the bridge, sends one command, and pretty-prints the
// result document to stdout.
func runCommand(cmdType string, params any) error {
	client := protocol.NewClient(bridgeAddr())
	defer client.Disconnect()

	result, err := client.SendCommand(cmdType, params)
	if err != nil {
		return err
	}
	return printJSON(result)
}

func printJSON(raw json.RawMessage) error {
	var buf map[string]any
	if err := json.Unmarshal(raw, &buf); err != nil {
		// Non-object results are printed as-is.
		fmt.Println(string(raw))
		return nil
	}
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(buf)
}

func newInfoCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "info",
		Short: "Show project metadata",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCommand("get_project_info", nil)
		},
	}
}

func newLayersCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "layers",
		Short: "List project layers",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCommand("get_layers", nil)
		},
	}
}

func newAddVectorCmd() *cobra.Command {
	var name, provider string
	cmd := &cobra.Command{
		Use:   "add-vector <path>",
		Short: "Add a vector layer from a data source path",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			params := map[string]any{"path": args[0]}
			if name != "" {
				params["name"] = name
			}
			if provider != "" {
				params["provider"] = provider
			}
			return runCommand("add_vector_layer", params)
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "Layer display name (defaults to file name)")
	cmd.Flags().StringVar(&provider, "provider", "", "Data provider (default ogr)")
	return cmd
}

func newAddRasterCmd() *cobra.Command {
	var name, provider string
	cmd := &cobra.Command{
		Use:   "add-raster <path>",
		Short: "Add a raster layer from a data source path",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			params := map[string]any{"path": args[0]}
			if name != "" {
				params["name"] = name
			}
			if provider != "" {
				params["provider"] = provider
			}
			return runCommand("add_raster_layer", params)
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "Layer display name (defaults to file name)")
	cmd.Flags().StringVar(&provider, "provider", "", "Data provider (default gdal)")
	return cmd
}

func newZoomCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "zoom <layer-id>",
		Short: "Zoom the canvas to a layer's extent",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCommand("zoom_to_layer", map[string]any{"layer_id": args[0]})
		},
	}
}

func newVisibilityCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "visibility <layer-id> <true|false>",
		Short: "Show or hide a layer",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			visible, err := strconv.ParseBool(args[1])
			if err != nil {
				return fmt.Errorf("visibility must be true or false, got %q", args[1])
			}
			return runCommand("set_visibility", map[string]any{
				"layer_id": args[0],
				"visible":  visible,
			})
		},
	}
}

func newRemoveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "remove <layer-id>",
		Short: "Remove a layer from the project",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCommand("remove_layer", map[string]any{"layer_id": args[0]})
		},
	}
}

func newExecCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "exec <code>",
		Short: "Execute a code fragment in the host's interpreter",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCommand("execute_code", map[string]any{"code": args[0]})
		},
	}
}

func newAlgCmd() *cobra.Command {
	var paramsJSON string
	cmd := &cobra.Command{
		Use:   "alg <algorithm>",
		Short: "Run a processing algorithm",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			params := map[string]any{}
			if paramsJSON != "" {
				if err := json.Unmarshal([]byte(paramsJSON), &params); err != nil {
					return fmt.Errorf("invalid --params JSON: %w", err)
				}
			}
			return runCommand("run_processing_algorithm", map[string]any{
				"algorithm":  args[0],
				"parameters": params,
			})
		},
	}
	cmd.Flags().StringVar(&paramsJSON, "params", "", "Algorithm parameters as a JSON object")
	return cmd
}
