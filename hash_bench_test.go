//go:build bench

package diagramcache

import (
	"strings"
	"testing"
)

// BenchmarkHashDiagram benchmarks key derivation across source sizes.
func BenchmarkHashDiagram(b *testing.B) {
	sizes := []struct {
		name  string
		lines int
	}{
		{"small", 3},
		{"medium", 50},
		{"large", 500},
	}

	for _, s := range sizes {
		var sb strings.Builder
		sb.WriteString("graph TD\n")
		for i := 0; i < s.lines; i++ {
			sb.WriteString("  A --> B[Étape é]\n")
		}
		source := sb.String()

		b.Run(s.name, func(b *testing.B) {
			b.ReportAllocs()
			b.SetBytes(int64(len(source)))
			b.ResetTimer()

			for i := 0; i < b.N; i++ {
				_ = HashDiagram(source)
			}
		})
	}
}

// BenchmarkStoreHas benchmarks cache lookups, which stat both artifacts.
func BenchmarkStoreHas(b *testing.B) {
	store, err := OpenStore(b.TempDir())
	if err != nil {
		b.Fatal(err)
	}
	key := HashDiagram("graph TD; A-->B")
	for _, v := range Variants {
		if err := store.WriteArtifact(key, v, []byte("<svg/>")); err != nil {
			b.Fatal(err)
		}
	}
	store.Put(key, store.EntryFor(key))

	b.ReportAllocs()
	b.ResetTimer()

	for i := 0; i < b.N; i++ {
		if !store.Has(key) {
			b.Fatal("Has() = false")
		}
	}
}
