package parser

import "testing"

func TestBuildLanguageRegistry_Defaults(t *testing.T) {
	registry, err := BuildLanguageRegistry(nil)
	if err != nil {
		t.Fatal(err)
	}

	if !registry["java"].Enabled {
		t.Fatal("expected java to be enabled by default")
	}
	if !registry["python"].Enabled {
		t.Fatal("expected python to be enabled by default")
	}
}

func TestBuildLanguageRegistry_RejectsDuplicateExtensions(t *testing.T) {
	_, err := BuildLanguageRegistry(map[string]LanguageOverride{
		"python": {Extensions: []string{".java"}},
	})
	if err == nil {
		t.Fatal("expected duplicate extension validation error")
	}
}

func TestBuildLanguageRegistry_DisabledLanguageMayShareExtension(t *testing.T) {
	disabled := false
	_, err := BuildLanguageRegistry(map[string]LanguageOverride{
		"python": {Enabled: &disabled, Extensions: []string{"java"}},
	})
	if err != nil {
		t.Fatalf("expected disabled language to be skipped by validation, got %v", err)
	}
}

func TestBuildLanguageRegistry_RejectsUnknownLanguage(t *testing.T) {
	_, err := BuildLanguageRegistry(map[string]LanguageOverride{
		"kotlin": {Extensions: []string{".kt"}},
	})
	if err == nil {
		t.Fatal("expected unknown language override error")
	}
}

func TestBuildLanguageRegistry_NormalizesExtensions(t *testing.T) {
	registry, err := BuildLanguageRegistry(map[string]LanguageOverride{
		"java": {Extensions: []string{"JAVA", ".jav", " .jav "}},
	})
	if err != nil {
		t.Fatal(err)
	}
	got := registry["java"].Extensions
	if len(got) != 2 || got[0] != ".jav" || got[1] != ".java" {
		t.Fatalf("unexpected normalized extensions: %v", got)
	}
}
