package roster

import (
	"fmt"
	"reflect"
	"testing"
)

func TestSynchronizeAssignsPaletteByPosition(t *testing.T) {
	got := Synchronize([]string{"alice", "bob"})

	want := []UserProfile{
		{Name: "alice", AvatarURL: AvatarBaseURL + "?seed=alice", Color: Palette[0]},
		{Name: "bob", AvatarURL: AvatarBaseURL + "?seed=bob", Color: Palette[1]},
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("profiles = %+v, want %+v", got, want)
	}
}

func TestSynchronizeEmpty(t *testing.T) {
	for _, names := range [][]string{nil, {}} {
		got := Synchronize(names)
		if got == nil || len(got) != 0 {
			t.Fatalf("Synchronize(%#v) = %#v, want empty non-nil slice", names, got)
		}
	}
}

func TestSynchronizeIsPure(t *testing.T) {
	names := make([]string, 0, 37)
	for i := 0; i < 37; i++ {
		names = append(names, fmt.Sprintf("user-%d", i))
	}

	first := Synchronize(names)
	second := Synchronize(names)
	if !reflect.DeepEqual(first, second) {
		t.Fatal("Synchronize returned different profiles for the same input")
	}
}

func TestSynchronizeColorWrapsAtPaletteSize(t *testing.T) {
	names := make([]string, 25)
	for i := range names {
		names[i] = fmt.Sprintf("u%d", i)
	}

	profiles := Synchronize(names)
	for i, p := range profiles {
		if p.Color != profiles[i%len(Palette)].Color {
			t.Fatalf("color[%d] = %s, want color[%d] = %s", i, p.Color, i%len(Palette), profiles[i%len(Palette)].Color)
		}
		if p.Color != Palette[i%len(Palette)] {
			t.Fatalf("color[%d] = %s, want %s", i, p.Color, Palette[i%len(Palette)])
		}
	}
}

func TestSynchronizeDoesNotDeduplicateColors(t *testing.T) {
	profiles := Synchronize([]string{"a", "b", "c", "d", "e", "f", "g", "h", "i", "j", "k"})
	if profiles[0].Color != profiles[10].Color {
		t.Fatalf("color[0] = %s, color[10] = %s, want equal", profiles[0].Color, profiles[10].Color)
	}
}

func TestSynchronizeDependsOnPositionNotHistory(t *testing.T) {
	before := Synchronize([]string{"alice", "bob"})
	after := Synchronize([]string{"bob"})

	if after[0].Color != Palette[0] {
		t.Fatalf("bob color = %s, want %s", after[0].Color, Palette[0])
	}
	if before[1].AvatarURL != after[0].AvatarURL {
		t.Fatalf("avatar changed with position: %s vs %s", before[1].AvatarURL, after[0].AvatarURL)
	}
}

func TestAvatarURLEscapesName(t *testing.T) {
	got := AvatarURL("jo smith&co")
	want := AvatarBaseURL + "?seed=jo+smith%26co"
	if got != want {
		t.Fatalf("AvatarURL = %s, want %s", got, want)
	}
}

func TestDefaultProfile(t *testing.T) {
	if Default.Color != "#ffffff" {
		t.Fatalf("default color = %s, want #ffffff", Default.Color)
	}
	if Default.AvatarURL != AvatarBaseURL+"?seed=unknown" {
		t.Fatalf("default avatar = %s", Default.AvatarURL)
	}
}

func TestLookup(t *testing.T) {
	profiles := Synchronize([]string{"alice", "bob"})

	if p, ok := Lookup(profiles, "bob"); !ok || p.Color != Palette[1] {
		t.Fatalf("Lookup(bob) = %+v, %v", p, ok)
	}
	if _, ok := Lookup(profiles, "carol"); ok {
		t.Fatal("Lookup(carol) found a profile")
	}
}
