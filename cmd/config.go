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
	"fmt"
	"strings"

	"github.com/spf13/pflag"
	"k8s.io/apimachinery/pkg/util/validation"

	cuecatalogues "github.com/chazu/libload/cue"
	"github.com/chazu/libload/pkg/catalogueloader"
)

const envPrefix = "LIBLOAD"

// Flag names
const (
	flagCatalogueType = "catalogue-type"
	flagCatalogueRef  = "catalogue-ref"
	flagNamespace     = "namespace"
	flagLibraryDir    = "library-dir"
	flagConcurrency   = "concurrency"
	flagMandatory     = "mandatory"
	flagAllMandatory  = "all-mandatory"
	flagOutput        = "output"
)

// Config keys; LIBLOAD_CATALOGUE_TYPE sets catalogue.type and so on
const (
	keyCatalogueType = "catalogue.type"
	keyCatalogueRef  = "catalogue.ref"
	keyNamespace     = "namespace"
	keyLibraryDir    = "library-dir"
	keyConcurrency   = "concurrency"
	keyMandatory     = "mandatory"
	keyGitUsername   = "git.username"
	keyGitToken      = "git.token"
)

// Config is the resolved configuration for a command run
type Config struct {
	CatalogueType string
	CatalogueRef  string
	Namespace     string
	LibraryDir    string
	Concurrency   int
	Mandatory     []string

	// Git credentials come from the config file or environment only
	GitUsername string
	GitToken    string
}

// loadConfig sets defaults, enables environment overrides and reads the
// config file if one was given. Flags set on the command line win over
// everything else.
func (o *options) loadConfig() error {
	v := o.viper
	v.SetDefault(keyCatalogueType, catalogueloader.EmbeddedType)
	v.SetDefault(keyCatalogueRef, cuecatalogues.DefaultCatalogue)
	v.SetDefault(keyLibraryDir, ".")
	v.SetDefault(keyConcurrency, 4)

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	if o.configFile == "" {
		return nil
	}
	v.SetConfigFile(o.configFile)
	if err := v.ReadInConfig(); err != nil {
		return fmt.Errorf("read config %s: %w", o.configFile, err)
	}
	return nil
}

func (o *options) bindFlag(key string, flag *pflag.Flag) {
	// BindPFlag only fails for a nil flag
	_ = o.viper.BindPFlag(key, flag)
}

// config resolves the current configuration
func (o *options) config() (Config, error) {
	v := o.viper
	cfg := Config{
		CatalogueType: v.GetString(keyCatalogueType),
		CatalogueRef:  v.GetString(keyCatalogueRef),
		Namespace:     v.GetString(keyNamespace),
		LibraryDir:    v.GetString(keyLibraryDir),
		Concurrency:   v.GetInt(keyConcurrency),
		Mandatory:     v.GetStringSlice(keyMandatory),
		GitUsername:   v.GetString(keyGitUsername),
		GitToken:      v.GetString(keyGitToken),
	}
	return cfg, cfg.Validate()
}

// Validate checks the configuration for values no command can work with
func (c Config) Validate() error {
	if c.CatalogueRef == "" {
		return fmt.Errorf("%s must not be empty", keyCatalogueRef)
	}
	if c.Concurrency < 1 {
		return fmt.Errorf("%s must be at least 1, got %d", keyConcurrency, c.Concurrency)
	}
	if c.Namespace != "" {
		if errs := validation.IsDNS1123Label(c.Namespace); len(errs) > 0 {
			return fmt.Errorf("invalid %s %q: %s", keyNamespace, c.Namespace, strings.Join(errs, ", "))
		}
	}
	return nil
}
