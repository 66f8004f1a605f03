package main

import (
	"fmt"
	"io"
	"log/slog"
	"maps"
	"os"
	"regexp"
	"slices"
	"strings"

	"github.com/jwebster45206/textland/pkg/content"
)

func main() {
	if len(os.Args) < 2 {
		fmt.Fprintf(os.Stderr, "Usage: %s <content-dir>\n", os.Args[0])
		os.Exit(1)
	}

	dir := os.Args[1]
	validator := &ContentValidator{}

	if err := validator.validateDir(dir); err != nil {
		fmt.Fprintf(os.Stderr, "Validation failed: %v\n", err)
		os.Exit(1)
	}

	fmt.Println("Content is valid!")
}

type ContentValidator struct {
	errors []string
}

func (v *ContentValidator) validateDir(dir string) error {
	fmt.Printf("Validating %s...\n", dir)

	info, err := os.Stat(dir)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", dir, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("%s is not a directory", dir)
	}

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	w, err := content.Load(dir, logger,
		content.WithStartLocation(os.Getenv("START_LOCATION")))
	if err != nil {
		return err
	}

	v.errors = nil
	v.validateWorld(w)

	if len(v.errors) > 0 {
		return fmt.Errorf("validation errors in %s:\n%s", dir, strings.Join(v.errors, "\n"))
	}

	fmt.Printf("  %d locations, %d items, %d species, %d classes, %d city maps\n",
		len(w.Locations), len(w.Items), len(w.Species), len(w.Classes), len(w.CityMaps))
	return nil
}

func (v *ContentValidator) validateWorld(w *content.World) {
	for _, id := range slices.Sorted(maps.Keys(w.Locations)) {
		v.validateIDFormat("location ID", id)
		loc := w.Locations[id]
		for npcID := range loc.NPCs {
			v.validateIDFormat("NPC ID in "+id, npcID)
		}
		for featureID := range loc.Features {
			v.validateIDFormat("feature ID in "+id, featureID)
		}
	}
	for _, id := range slices.Sorted(maps.Keys(w.Items)) {
		v.validateIDFormat("item ID", id)
	}
	for _, problem := range w.Validate() {
		v.addError(problem)
	}
}

func (v *ContentValidator) validateIDFormat(fieldName, id string) {
	if id == "" {
		return
	}

	if !isValidID(id) {
		v.addError(fmt.Sprintf("%s '%s' should be lowercase snake_case", fieldName, id))
	}
}

func (v *ContentValidator) addError(msg string) {
	v.errors = append(v.errors, "  - "+msg)
}

var validIDRegex = regexp.MustCompile(`^[a-z][a-z0-9_]*[a-z0-9]$|^[a-z]$`)

func isValidID(id string) bool {
	return validIDRegex.MatchString(id)
}
