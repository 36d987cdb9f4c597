/*
Copyright 2025.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"sync"

	"github.com/spf13/cobra"
	ctrl "sigs.k8s.io/controller-runtime"

	"github.com/chazu/libload/pkg/loader"
)

const (
	outputText = "text"
	outputJSON = "json"
)

func addOutputFlag(cmd *cobra.Command, output *string) {
	cmd.Flags().StringVarP(output, flagOutput, "o", outputText, "Output format: text or json.")
}

func checkOutput(output string) error {
	if output != outputText && output != outputJSON {
		return fmt.Errorf("unsupported output format %q", output)
	}
	return nil
}

func writeJSON(out io.Writer, v any) error {
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func newLoadCommand(o *options) *cobra.Command {
	var (
		output       string
		allMandatory bool
	)

	cmd := &cobra.Command{
		Use:   "load NAME...",
		Short: "Load libraries and their dependencies",
		Long: `Load each named library after all of its dependencies. Several names
are loaded concurrently; a library shared between them is loaded once.

A library is loaded when its file exists in --library-dir. Failures of
optional libraries are reported and loading continues; a failure of a
mandatory library stops that request.`,
		Example: `  libload load reactnativejni
  libload load reactnativejni hermes --mandatory reactnativejni
  libload load fabricjni --library-dir ./jniLibs/arm64-v8a -o json`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := checkOutput(output); err != nil {
				return err
			}
			return o.runLoad(cmd, args, output, allMandatory)
		},
	}

	flags := cmd.Flags()
	flags.String(flagLibraryDir, ".", "Directory containing the library files.")
	flags.Int(flagConcurrency, 4, "Maximum number of requests loaded at once.")
	flags.StringSlice(flagMandatory, nil, "Libraries whose failure aborts their request.")
	flags.BoolVar(&allMandatory, flagAllMandatory, false, "Treat every requested library as mandatory.")
	addOutputFlag(cmd, &output)

	o.bindFlag(keyLibraryDir, flags.Lookup(flagLibraryDir))
	o.bindFlag(keyConcurrency, flags.Lookup(flagConcurrency))
	o.bindFlag(keyMandatory, flags.Lookup(flagMandatory))

	return cmd
}

// loadReport is the JSON form of one load request
type loadReport struct {
	Name     string           `json:"name"`
	Outcomes []loader.Outcome `json:"outcomes"`
	Error    string           `json:"error,omitempty"`
}

func (o *options) runLoad(cmd *cobra.Command, names []string, output string, allMandatory bool) error {
	cfg, err := o.config()
	if err != nil {
		return err
	}
	ctx := o.context(cmd, "load")

	cat, err := o.catalogue(ctx, cfg)
	if err != nil {
		return err
	}
	setupLog.V(1).Info("Loading libraries", "catalogue", cat.Metadata().Name, "libraries", names, "dir", cfg.LibraryDir)

	out := cmd.OutOrStdout()
	var mu sync.Mutex

	var native loader.NativeLoader = loader.DirectoryNativeLoader{Dir: cfg.LibraryDir}
	if output == outputText {
		dir := native
		native = loader.NativeLoaderFunc(func(ctx context.Context, fileName string) error {
			mu.Lock()
			fmt.Fprintf(out, "Loading %s\n", fileName)
			mu.Unlock()
			return dir.LoadLibrary(ctx, fileName)
		})
	}

	logger := ctrl.LoggerFrom(ctx)
	l := loader.New(cat, native,
		loader.WithStatusTable(loader.NewStatusTable()),
		loader.WithMaxConcurrency(cfg.Concurrency),
		loader.WithObserver(func(outcome loader.Outcome) {
			logger.V(1).Info("Library outcome",
				"library", outcome.Name,
				"outcome", outcome.Kind,
				"reason", outcome.Reason,
				"mandatory", outcome.Mandatory)
		}),
	)

	var reqOpts []loader.RequestOption
	if allMandatory {
		reqOpts = append(reqOpts, loader.Mandatory())
	}
	if len(cfg.Mandatory) > 0 {
		reqOpts = append(reqOpts, loader.MandatoryLibraries(cfg.Mandatory...))
	}

	results, loadErr := l.LoadAll(ctx, names, reqOpts...)

	if output == outputJSON {
		reports := make([]loadReport, len(results))
		for i, r := range results {
			reports[i] = loadReport{Name: r.Name, Outcomes: r.Outcomes}
			if r.Err != nil {
				reports[i].Error = r.Err.Error()
			}
		}
		if err := writeJSON(out, reports); err != nil {
			return err
		}
		return loadErr
	}

	for _, r := range results {
		fmt.Fprintf(out, "\n%s:\n", r.Name)
		for _, outcome := range r.Outcomes {
			fmt.Fprintf(out, "  %-40s %s\n", outcome.Name, describeOutcome(outcome))
		}
		if r.Err != nil {
			fmt.Fprintf(out, "  error: %v\n", r.Err)
		}
	}
	return loadErr
}

func describeOutcome(o loader.Outcome) string {
	s := string(o.Kind)
	if o.Reason != "" {
		s += " (" + o.Reason + ")"
	}
	if o.Err != nil {
		s += ": " + o.Err.Error()
	}
	if o.Mandatory {
		s += " [mandatory]"
	}
	return s
}

func newPlanCommand(o *options) *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "plan NAME",
		Short: "Print the load order for a library without loading it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := checkOutput(output); err != nil {
				return err
			}

			cfg, err := o.config()
			if err != nil {
				return err
			}
			cat, err := o.catalogue(o.context(cmd, "plan"), cfg)
			if err != nil {
				return err
			}

			plan, err := loader.New(cat, nil).Plan(args[0])
			if err != nil {
				return err
			}

			names := plan.Names(cat)
			out := cmd.OutOrStdout()
			if output == outputJSON {
				return writeJSON(out, map[string]any{
					"target": cat.Name(plan.Target),
					"order":  names,
				})
			}
			for i, name := range names {
				fmt.Fprintf(out, "%3d  %s\n", i+1, name)
			}
			return nil
		},
	}
	addOutputFlag(cmd, &output)
	return cmd
}

func newCheckCommand(o *options) *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "check",
		Short: "Verify the catalogue is acyclic and print its full load order",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := checkOutput(output); err != nil {
				return err
			}

			cfg, err := o.config()
			if err != nil {
				return err
			}
			cat, err := o.catalogue(o.context(cmd, "check"), cfg)
			if err != nil {
				return err
			}

			if err := cat.CheckAcyclic(); err != nil {
				return err
			}
			order, err := cat.LoadOrder()
			if err != nil {
				return err
			}
			names := make([]string, len(order))
			for i, id := range order {
				names[i] = cat.Name(id)
			}

			out := cmd.OutOrStdout()
			if output == outputJSON {
				return writeJSON(out, map[string]any{
					"name":      cat.Metadata().Name,
					"version":   cat.Metadata().Version,
					"libraries": cat.Len(),
					"digest":    cat.Digest(),
					"order":     names,
				})
			}

			fmt.Fprintf(out, "catalogue: %s %s\n", cat.Metadata().Name, cat.Metadata().Version)
			fmt.Fprintf(out, "libraries: %d\n", cat.Len())
			fmt.Fprintf(out, "digest:    %s\n", cat.Digest())
			fmt.Fprintln(out, "order:")
			for i, name := range names {
				fmt.Fprintf(out, "%3d  %s\n", i+1, name)
			}
			return nil
		},
	}
	addOutputFlag(cmd, &output)
	return cmd
}

func newExportCommand(o *options) *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Print the catalogue as parallel name and dependency arrays",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := checkOutput(output); err != nil {
				return err
			}

			cfg, err := o.config()
			if err != nil {
				return err
			}
			cat, err := o.catalogue(o.context(cmd, "export"), cfg)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if output == outputJSON {
				return writeJSON(out, cat.Table())
			}
			_, err = fmt.Fprintln(out, cat.Table().String())
			return err
		},
	}
	addOutputFlag(cmd, &output)
	return cmd
}
