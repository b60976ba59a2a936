package annotation

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"pcb-annotator/pkg/geometry"

	"gopkg.in/yaml.v3"
)

// Format identifies a map source encoding.
type Format int

const (
	FormatJSON Format = iota
	FormatYAML
)

// ErrUnknownFormat is returned for source files with an unrecognized extension.
var ErrUnknownFormat = errors.New("unknown map source format")

// Source is the on-disk record describing one map: its image and baseline
// annotations.
type Source struct {
	Name        string             `json:"name" yaml:"name"`
	Description string             `json:"description,omitempty" yaml:"description,omitempty"`
	Image       string             `json:"image,omitempty" yaml:"image,omitempty"`
	ImageURL    string             `json:"image_url,omitempty" yaml:"image_url,omitempty"`
	Annotations []SourceAnnotation `json:"annotations" yaml:"annotations"`

	// Path is the file the source was read from, if any.
	Path string `json:"-" yaml:"-"`
}

// SourceAnnotation is one annotation entry of a Source.
type SourceAnnotation struct {
	ID          string              `json:"id" yaml:"id"`
	Name        string              `json:"name" yaml:"name"`
	Description string              `json:"description" yaml:"description"`
	Coordinates []geometry.PointInt `json:"coordinates" yaml:"coordinates"`
	ZOrder      *int                `json:"zorder,omitempty" yaml:"zorder,omitempty"`
}

// FormatFromPath picks the format from a file extension.
func FormatFromPath(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return FormatJSON, nil
	case ".yaml", ".yml":
		return FormatYAML, nil
	default:
		return 0, fmt.Errorf("%s: %w", path, ErrUnknownFormat)
	}
}

// LoadSource reads and parses a map source file.
func LoadSource(path string) (*Source, error) {
	format, err := FormatFromPath(path)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read map source: %w", err)
	}
	src, err := ParseSource(data, format)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	src.Path = path
	if src.Name == "" {
		src.Name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	return src, nil
}

// ParseSource decodes a map source in the given format.
func ParseSource(data []byte, format Format) (*Source, error) {
	var src Source
	var err error
	switch format {
	case FormatJSON:
		err = json.Unmarshal(data, &src)
	case FormatYAML:
		err = yaml.Unmarshal(data, &src)
	default:
		return nil, ErrUnknownFormat
	}
	if err != nil {
		return nil, err
	}
	return &src, nil
}

// ImageRef returns the image reference, preferring "image" over "image_url".
func (s *Source) ImageRef() string {
	if s.Image != "" {
		return s.Image
	}
	return s.ImageURL
}

// Validate reports every problem found in the source.
func (s *Source) Validate() error {
	var errs []error
	if s.ImageRef() == "" {
		errs = append(errs, fmt.Errorf("map %q: no image reference", s.Name))
	}
	seen := make(map[string]int)
	for i, a := range s.Annotations {
		if a.ID == "" {
			errs = append(errs, fmt.Errorf("annotation #%d: empty id", i))
		} else if prev, ok := seen[a.ID]; ok {
			errs = append(errs, fmt.Errorf("annotation #%d: duplicate id %q (first at #%d)", i, a.ID, prev))
		} else {
			seen[a.ID] = i
		}
		if len(a.Coordinates) < MinVertices {
			errs = append(errs, fmt.Errorf("annotation %q: %d vertices: %w", a.ID, len(a.Coordinates), ErrTooFewVertices))
		}
	}
	return errors.Join(errs...)
}

// ToView builds a MapView. A relative image path is resolved against the
// source file's directory.
func (s *Source) ToView() *MapView {
	baseline := make([]*Annotation, 0, len(s.Annotations))
	for _, sa := range s.Annotations {
		z := DefaultZOrder
		if sa.ZOrder != nil {
			z = *sa.ZOrder
		}
		baseline = append(baseline, New(sa.ID, sa.Name, sa.Description, sa.Coordinates, z))
	}
	v := NewMapView(s.Name, resolveImage(s.ImageRef(), s.Path), baseline)
	v.Description = s.Description
	return v
}

func resolveImage(ref, sourcePath string) string {
	if ref == "" || sourcePath == "" || filepath.IsAbs(ref) || strings.Contains(ref, ":") {
		return ref
	}
	return filepath.Join(filepath.Dir(sourcePath), ref)
}
