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
	"flag"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	ctrl "sigs.k8s.io/controller-runtime"
	"sigs.k8s.io/controller-runtime/pkg/client"
	"sigs.k8s.io/controller-runtime/pkg/log/zap"

	cuecatalogues "github.com/chazu/libload/cue"
	"github.com/chazu/libload/pkg/catalogue"
	"github.com/chazu/libload/pkg/catalogueloader"
)

// options holds state shared by all subcommands
type options struct {
	viper      *viper.Viper
	zapOpts    zap.Options
	configFile string

	// k8sClient is created on demand for the configmap source when unset
	k8sClient client.Client
}

func newOptions() *options {
	return &options{
		viper:   viper.New(),
		zapOpts: zap.Options{Development: true},
	}
}

func newRootCommand(o *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "libload",
		Short: "Load native libraries in dependency order",
		Long: `libload resolves shared libraries against a dependency catalogue and
loads each one after everything it depends on.

Catalogues are CUE definitions. The React Native Android catalogue is
embedded; others can be read from files or git repositories, passed inline
or fetched from a Kubernetes ConfigMap.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			ctrl.SetLogger(zap.New(zap.UseFlagOptions(&o.zapOpts), zap.WriteTo(cmd.ErrOrStderr())))
			return o.loadConfig()
		},
	}

	flags := cmd.PersistentFlags()
	flags.StringVar(&o.configFile, "config", "", "Path to a config file (yaml, json or toml).")
	flags.String(flagCatalogueType, catalogueloader.EmbeddedType,
		"Catalogue source: embedded, file, inline, git or configmap.")
	flags.String(flagCatalogueRef, cuecatalogues.DefaultCatalogue,
		"Catalogue reference: embedded name, file path, CUE text, git URL or [namespace/]configmap.")
	flags.String(flagNamespace, "", "Namespace for configmap references without one.")

	goflags := flag.NewFlagSet("zap", flag.ContinueOnError)
	o.zapOpts.BindFlags(goflags)
	flags.AddGoFlagSet(goflags)

	o.bindFlag(keyCatalogueType, flags.Lookup(flagCatalogueType))
	o.bindFlag(keyCatalogueRef, flags.Lookup(flagCatalogueRef))
	o.bindFlag(keyNamespace, flags.Lookup(flagNamespace))

	cmd.AddCommand(
		newLoadCommand(o),
		newPlanCommand(o),
		newCheckCommand(o),
		newExportCommand(o),
	)
	return cmd
}

// context returns the command context carrying a named logger
func (o *options) context(cmd *cobra.Command, name string) context.Context {
	return ctrl.LoggerInto(cmd.Context(), ctrl.Log.WithName(name))
}

// catalogue loads the configured catalogue
func (o *options) catalogue(ctx context.Context, cfg Config) (*catalogue.Catalogue, error) {
	k8sClient := o.k8sClient
	if k8sClient == nil && cfg.CatalogueType == catalogueloader.ConfigMapType {
		restConfig, err := ctrl.GetConfig()
		if err != nil {
			return nil, fmt.Errorf("failed to get kubeconfig: %w", err)
		}
		k8sClient, err = client.New(restConfig, client.Options{Scheme: scheme})
		if err != nil {
			return nil, fmt.Errorf("failed to create client: %w", err)
		}
	}

	registry := catalogueloader.NewFetcherRegistry(k8sClient, cfg.Namespace)
	if cfg.GitToken != "" {
		registry.Register(catalogueloader.NewGitFetcher(catalogueloader.GitTokenAuth(cfg.GitUsername, cfg.GitToken)))
	}

	l, err := catalogueloader.NewLoader(registry)
	if err != nil {
		return nil, err
	}

	cat, _, err := l.Load(ctx, cfg.CatalogueType, cfg.CatalogueRef)
	if err != nil {
		return nil, err
	}
	return cat, nil
}
