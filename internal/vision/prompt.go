// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package vision

import (
	"bytes"
	"text/template"
)

// promptTmpl instructs the model to read one catalog page image and return
// one JSON object per visual product block.
var promptTmpl = template.Must(template.New("vision").Parse(`Eres un extractor VISUAL de catálogos de venta directa ({{.Catalog}}).
Tu entrada es UNA imagen de la página {{.Page}} del catálogo.

OBJETIVO
Detecta los bloques visuales de producto y genera datos POR SKU, sin mezclar información entre productos.

REGLAS
1) Cada producto está en un BLOQUE visual. No mezcles precios, porcentajes ni textos entre bloques.
2) SKU: número dentro de paréntesis, por ejemplo (174494). Si no se ve claro usa "sku": null y agrega el warning "SKU_UNCLEAR".
3) Descuento: si ves "X% de descuento" úsalo tal cual en discount_badge. Si ves "HASTA X%" conserva "HASTA".
4) Precios: "De $X" y "A $Y" dan price_regular=X y price_sale_final=Y. Un solo precio sin "De/A" da price_regular=null y price_sale_final con ese precio.
5) "Repuesto" junto a un SKU es un producto independiente.
6) title debe ser el nombre completo del producto. size captura ml, g o unidades.
7) notes: como máximo 2 frases cortas.

SALIDA
Devuelve SOLO un objeto JSON válido, sin markdown, con esta forma:
{"page": {{.Page}}, "items": [{"sku": "174494", "title": "...", "variant": null, "size": "100 ml", "price_regular": 450, "price_sale_final": 315, "discount_badge": "30%", "points": 12, "notes": [], "warnings": []}], "warnings": []}
`))

type promptData struct {
	Catalog string
	Page    int
}

func renderPrompt(catalog string, page int) (string, error) {
	if catalog == "" {
		catalog = "Natura / Avon / Casa y Estilo"
	}
	var buf bytes.Buffer
	if err := promptTmpl.Execute(&buf, promptData{Catalog: catalog, Page: page}); err != nil {
		return "", err
	}
	return buf.String(), nil
}
