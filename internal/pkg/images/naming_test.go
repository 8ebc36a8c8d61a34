package images

import (
	"fmt"
	"regexp"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSlugify(t *testing.T) {
	cases := map[string]string{
		"My Holiday Photo": "my-holiday-photo",
		"already-clean":    "already-clean",
		"Umläute & Straße": "uml-ute-stra-e",
		"  padded  ":       "padded",
		"UPPER_case.mixed": "upper-case-mixed",
		"%%%":              "",
		"über--doppelt":    "ber-doppelt",
	}

	for input, want := range cases {
		assert.Equal(t, want, slugify(input), "slugify(%q)", input)
	}
}

func TestCleanFileNameKeepsExtensionVerbatim(t *testing.T) {
	name, err := cleanFileName("My Photo.PNG")
	require.NoError(t, err)
	assert.Equal(t, "my-photo.PNG", name)
}

func TestCleanFileNameEmptyStemGetsRandomName(t *testing.T) {
	name, err := cleanFileName("###.jpg")
	require.NoError(t, err)
	assert.Regexp(t, `^[0-9A-Za-z]{10}\.jpg$`, name)
}

func TestBuildSourcePathPartitionsByMonth(t *testing.T) {
	never := func(string) (bool, error) { return false, nil }

	got, err := BuildSourcePath("Cat Pic.png", "gallery", false, never)
	require.NoError(t, err)

	want := fmt.Sprintf("uploads/images/gallery/%s/cat-pic.png", time.Now().Format("2006-01"))
	assert.Equal(t, want, got)
}

func TestBuildSourcePathResolvesCollisions(t *testing.T) {
	// First candidate taken, the prefixed retry is free.
	probes := 0
	exists := func(candidate string) (bool, error) {
		probes++
		return probes == 1, nil
	}

	got, err := BuildSourcePath("cat.png", "gallery", false, exists)
	require.NoError(t, err)

	month := time.Now().Format("2006-01")
	assert.Regexp(t, regexp.MustCompile(`^uploads/images/gallery/`+month+`/[0-9A-Za-z]{3}cat\.png$`), got)
	assert.Equal(t, 2, probes)
}

func TestBuildSourcePathAlwaysTerminatesOnRepeatedCollisions(t *testing.T) {
	// Even many collisions in a row keep producing fresh candidates.
	probes := 0
	exists := func(string) (bool, error) {
		probes++
		return probes <= 5, nil
	}

	got, err := BuildSourcePath("cat.png", "gallery", false, exists)
	require.NoError(t, err)
	assert.Equal(t, 6, probes)
	assert.Regexp(t, `/[0-9A-Za-z]{3}cat\.png$`, got)
}

func TestBuildSourcePathSecureUploads(t *testing.T) {
	never := func(string) (bool, error) { return false, nil }

	got, err := BuildSourcePath("cat.png", "gallery", true, never)
	require.NoError(t, err)

	month := time.Now().Format("2006-01")
	assert.Regexp(t, regexp.MustCompile(`^uploads/images/gallery/`+month+`/[0-9A-Za-z]{16}-cat\.png$`), got)
}

func TestBuildSourcePathPropagatesProbeErrors(t *testing.T) {
	exists := func(string) (bool, error) { return false, fmt.Errorf("backend offline") }

	_, err := BuildSourcePath("cat.png", "gallery", false, exists)
	assert.EqualError(t, err, "backend offline")
}
