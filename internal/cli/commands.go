package cli

import (
	"fmt"
	"slices"

	"github.com/spf13/cobra"
	"github.com/tinyalpaca/alpacagen/internal/document"
	"github.com/tinyalpaca/alpacagen/internal/loader"
	"github.com/tinyalpaca/alpacagen/internal/model"
	"github.com/tinyalpaca/alpacagen/internal/refs"
	"github.com/tinyalpaca/alpacagen/internal/report"
	"github.com/tinyalpaca/alpacagen/internal/specsource"
)

func newFetchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "fetch",
		Short: "Read the spec from the cache file, downloading it first if needed",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openSession(cmd)
			if err != nil {
				return err
			}
			switch s.origin {
			case specsource.OriginCache:
				fmt.Fprintf(cmd.OutOrStdout(), "Read spec from cache file %s (%d bytes)\n", s.cfg.CacheFile, len(s.data))
			case specsource.OriginNetwork:
				fmt.Fprintf(cmd.OutOrStdout(), "Cached spec from %s in file %s (%d bytes)\n", s.cfg.SpecURL, s.cfg.CacheFile, len(s.data))
			}
			return nil
		},
	}
}

func newComponentsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "components",
		Short: "List the component index keys",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openSession(cmd)
			if err != nil {
				return err
			}
			idx, err := s.index()
			if err != nil {
				return err
			}
			r, err := s.renderer()
			if err != nil {
				return err
			}
			out, err := r.Components(report.Components{Keys: idx.Keys()})
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), out)
			return nil
		},
	}
}

func newResolveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "resolve",
		Short: "Print paths with every $ref replaced by the component it names",
		Long: `Print the paths section with references resolved, as YAML.

A reference met again while it is still being expanded is left in place and
tagged with x-cyclic: true.`,
		Args: cobra.NoArgs,
		RunE: runResolve,
	}

	flags := cmd.Flags()
	flags.String("device-type", "", "Only paths served by this device type (e.g. camera)")
	flags.String("path", "", "Only this path (e.g. /camera/{device_number}/gain)")
	flags.String("method", "", "Only this operation of --path (e.g. get)")

	return cmd
}

func runResolve(cmd *cobra.Command, args []string) error {
	deviceType, _ := cmd.Flags().GetString("device-type")
	path, _ := cmd.Flags().GetString("path")
	methodName, _ := cmd.Flags().GetString("method")

	if methodName != "" && path == "" {
		return fmt.Errorf("--method requires --path")
	}
	if path != "" && deviceType != "" {
		return fmt.Errorf("--path and --device-type are mutually exclusive")
	}

	s, err := openSession(cmd)
	if err != nil {
		return err
	}
	idx, err := s.index()
	if err != nil {
		return err
	}

	var resolved document.Node
	switch {
	case methodName != "":
		method, ok := model.ParseMethod(methodName)
		if !ok {
			return fmt.Errorf("invalid method: %s", methodName)
		}
		op, err := operationNode(s.doc, method, path)
		if err != nil {
			return err
		}
		resolved, err = refs.Resolve(op, idx)
		if err != nil {
			return fmt.Errorf("resolving %s %s: %w", method, path, err)
		}

	case path != "":
		paths, err := refs.Paths(s.doc)
		if err != nil {
			return err
		}
		item, ok := paths[path]
		if !ok {
			return fmt.Errorf("path not found: %s", path)
		}
		resolved, err = refs.Resolve(item, idx)
		if err != nil {
			return fmt.Errorf("resolving %s: %w", path, err)
		}

	default:
		resolved, err = refs.ResolvePaths(s.doc, idx, deviceType)
		if err != nil {
			return fmt.Errorf("resolving paths: %w", err)
		}
	}

	out, err := document.Marshal(resolved)
	if err != nil {
		return err
	}
	fmt.Fprint(cmd.OutOrStdout(), string(out))
	return nil
}

func newDeviceTypesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "device-types",
		Short: "List the device types the spec defines operations for",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openSession(cmd)
			if err != nil {
				return err
			}
			_, spec, err := s.typed(cmd)
			if err != nil {
				return err
			}

			var data report.DeviceTypes
			for _, dt := range spec.DeviceTypes() {
				data.DeviceTypes = append(data.DeviceTypes, report.DeviceType{
					Name:       dt,
					Operations: len(spec.OperationsFor(dt)),
				})
			}

			r, err := s.renderer()
			if err != nil {
				return err
			}
			out, err := r.DeviceTypes(data)
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), out)
			return nil
		},
	}
}

func newOperationsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "operations",
		Short: "List operations with their path, query and body values",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			deviceType, _ := cmd.Flags().GetString("device-type")

			s, err := openSession(cmd)
			if err != nil {
				return err
			}
			_, spec, err := s.typed(cmd)
			if err != nil {
				return err
			}

			if deviceType != "" && !slices.Contains(spec.DeviceTypes(), deviceType) {
				cmd.PrintErrf("Warning: no operations specific to device type %q; listing common operations only\n", deviceType)
			}

			r, err := s.renderer()
			if err != nil {
				return err
			}
			out, err := r.Operations(report.Operations{
				DeviceType: deviceType,
				Operations: spec.OperationsFor(deviceType),
			})
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), out)
			return nil
		},
	}

	cmd.Flags().String("device-type", "", "Only operations served by this device type (e.g. telescope)")

	return cmd
}

func newValidateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Validate the spec as an OpenAPI document",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openSession(cmd)
			if err != nil {
				return err
			}
			result, _, err := s.typed(cmd)
			if err != nil {
				return err
			}

			findings, err := loader.Validate(result)
			if err != nil {
				return err
			}

			r, err := s.renderer()
			if err != nil {
				return err
			}
			out, err := r.Validation(report.Validation{Version: result.Version, Findings: findings})
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), out)

			if len(findings) > 0 {
				return fmt.Errorf("spec has %d validation findings", len(findings))
			}
			return nil
		},
	}
}
