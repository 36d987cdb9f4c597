package catalogueloader

import (
	"context"
	"fmt"
	"sort"
	"strings"

	corev1 "k8s.io/api/core/v1"
	"sigs.k8s.io/controller-runtime/pkg/client"
)

const (
	// CatalogueContentKey is the default key for catalogue content in a ConfigMap
	CatalogueContentKey = "catalogue.cue"
)

// ConfigMapFetcher fetches catalogue definitions from Kubernetes ConfigMaps
type ConfigMapFetcher struct {
	client    client.Client
	namespace string
}

// NewConfigMapFetcher creates a ConfigMap fetcher. namespace is used for
// references that do not name one.
func NewConfigMapFetcher(k8sClient client.Client, namespace string) *ConfigMapFetcher {
	return &ConfigMapFetcher{
		client:    k8sClient,
		namespace: namespace,
	}
}

// Type returns the fetcher type
func (f *ConfigMapFetcher) Type() string {
	return ConfigMapType
}

// Fetch retrieves a catalogue definition from a ConfigMap
// ref format: configmap-name or namespace/configmap-name
func (f *ConfigMapFetcher) Fetch(ctx context.Context, ref string) (*FetchResult, error) {
	namespace, name, err := parseConfigMapRef(ref)
	if err != nil {
		return nil, fmt.Errorf("invalid ConfigMap reference: %w", err)
	}
	if namespace == "" {
		namespace = f.namespace
	}
	if namespace == "" {
		return nil, fmt.Errorf("invalid ConfigMap reference %q: no namespace", ref)
	}

	cm := &corev1.ConfigMap{}
	if err := f.client.Get(ctx, client.ObjectKey{
		Namespace: namespace,
		Name:      name,
	}, cm); err != nil {
		return nil, fmt.Errorf("failed to get ConfigMap %s/%s: %w", namespace, name, err)
	}

	files, err := extractCatalogueFromConfigMap(cm)
	if err != nil {
		return nil, fmt.Errorf("failed to extract catalogue from ConfigMap %s/%s: %w", namespace, name, err)
	}

	// Use resourceVersion as the digest for change detection
	digest := string(cm.UID) + ":" + cm.ResourceVersion

	return &FetchResult{
		Files:  files,
		Digest: digest,
		Source: fmt.Sprintf("configmap://%s/%s", namespace, name),
	}, nil
}

// parseConfigMapRef parses a ConfigMap reference
// Supports formats:
//   - name (uses the fetcher's namespace)
//   - namespace/name
func parseConfigMapRef(ref string) (namespace, name string, err error) {
	if ref == "" {
		return "", "", fmt.Errorf("reference is empty")
	}

	parts := strings.SplitN(ref, "/", 2)
	if len(parts) == 1 {
		return "", parts[0], nil
	}
	if parts[0] == "" || parts[1] == "" || strings.Contains(parts[1], "/") {
		return "", "", fmt.Errorf("malformed reference %q", ref)
	}
	return parts[0], parts[1], nil
}

// extractCatalogueFromConfigMap extracts catalogue files from a ConfigMap
// It looks for:
// 1. A key named "catalogue.cue"
// 2. Any keys ending in ".cue"
// 3. Falls back to every key, formats chosen by key extension
func extractCatalogueFromConfigMap(cm *corev1.ConfigMap) ([]SourceFile, error) {
	if len(cm.Data) == 0 {
		return nil, fmt.Errorf("ConfigMap has no data")
	}

	if content, ok := cm.Data[CatalogueContentKey]; ok {
		return []SourceFile{{Name: CatalogueContentKey, Content: []byte(content)}}, nil
	}

	var keys []string
	for key := range cm.Data {
		if strings.HasSuffix(key, ".cue") {
			keys = append(keys, key)
		}
	}
	if len(keys) == 0 {
		for key := range cm.Data {
			keys = append(keys, key)
		}
	}

	// Sort for deterministic ordering
	sort.Strings(keys)

	files := make([]SourceFile, 0, len(keys))
	for _, key := range keys {
		files = append(files, SourceFile{Name: key, Content: []byte(cm.Data[key])})
	}
	return files, nil
}
