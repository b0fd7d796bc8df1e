package stats

// Canonical waste-category ids as stored on detecciones rows. The set
// is fixed; any other id maps to CategoriaOtro and is excluded from
// capacity-based computations.
const (
	CategoriaReciclable uint = 1
	CategoriaOrganico   uint = 2
	CategoriaInorganico uint = 3
	CategoriaPeligroso  uint = 4
)

const CategoriaOtro = "otro"

var nombresCategorias = map[uint]string{
	CategoriaReciclable: "reciclable",
	CategoriaOrganico:   "organico",
	CategoriaInorganico: "inorganico",
	CategoriaPeligroso:  "peligroso",
}

// categoriasPrimarias are the compartment-backed categories: a bin's
// rated capacity is split evenly across exactly these three.
var categoriasPrimarias = []string{"organico", "reciclable", "inorganico"}

// categoriasCanonicas is the full 4-category mapping used by the
// combined panel and user totals.
var categoriasCanonicas = []string{"reciclable", "organico", "inorganico", "peligroso"}

// NombreCategoria maps a stored category id to its canonical name.
// Unknown ids become "otro".
func NombreCategoria(id uint) string {
	if n, ok := nombresCategorias[id]; ok {
		return n
	}
	return CategoriaOtro
}

// EsPrimaria reports whether the named category owns a bin compartment.
func EsPrimaria(nombre string) bool {
	for _, p := range categoriasPrimarias {
		if p == nombre {
			return true
		}
	}
	return false
}
