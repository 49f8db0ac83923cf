// Package pricing loads pricing profiles: the per-deployment price table,
// adjustment rules and form vocabulary, stored as JSON.
package pricing

import (
	"bytes"
	"embed"
	"encoding/json"
	"fmt"
	"io/fs"
	"os"
	"path"
	"sort"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"property-valuation/models"
)

// DefaultProfile is used when neither a file nor a profile name is configured.
const DefaultProfile = "gandhinagar"

const schemaURL = "pricing-profile.schema.json"

//go:embed schema.json
var schemaJSON []byte

//go:embed profiles/*.json
var profilesFS embed.FS

var profileSchema = compileSchema()

func compileSchema() *jsonschema.Schema {
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource(schemaURL, bytes.NewReader(schemaJSON)); err != nil {
		panic(fmt.Sprintf("pricing: add schema resource: %v", err))
	}
	return compiler.MustCompile(schemaURL)
}

// Parse validates data against the profile schema and decodes it.
// Rates and effects are decoded as exact decimals.
func Parse(data []byte) (*models.PricingConfig, error) {
	var raw any
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	if err := dec.Decode(&raw); err != nil {
		return nil, fmt.Errorf("pricing: decode: %w", err)
	}
	if err := profileSchema.Validate(raw); err != nil {
		return nil, fmt.Errorf("pricing: invalid profile: %w", err)
	}

	var cfg models.PricingConfig
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("pricing: unmarshal: %w", err)
	}
	return &cfg, nil
}

// LoadFile reads and parses a profile from disk.
func LoadFile(filePath string) (*models.PricingConfig, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("pricing: read %q: %w", filePath, err)
	}
	cfg, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%w (file %s)", err, filePath)
	}
	return cfg, nil
}

// LoadProfile parses one of the profiles shipped with the binary.
func LoadProfile(name string) (*models.PricingConfig, error) {
	data, err := profilesFS.ReadFile(path.Join("profiles", name+".json"))
	if err != nil {
		return nil, fmt.Errorf("pricing: unknown profile %q (available: %s)", name, strings.Join(Profiles(), ", "))
	}
	return Parse(data)
}

// Profiles lists the embedded profile names.
func Profiles() []string {
	entries, err := fs.ReadDir(profilesFS, "profiles")
	if err != nil {
		return nil
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".json") {
			continue
		}
		names = append(names, strings.TrimSuffix(e.Name(), ".json"))
	}
	sort.Strings(names)
	return names
}

// Load prefers an explicit file, then a named embedded profile, then the default.
func Load(filePath, profile string) (*models.PricingConfig, error) {
	if filePath != "" {
		return LoadFile(filePath)
	}
	if profile == "" {
		profile = DefaultProfile
	}
	return LoadProfile(profile)
}
