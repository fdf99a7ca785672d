package advisor

import "strings"

const roleInstruction = `Actúa como un Arquitecto Técnico experto en Domótica y eficiencia energética.
Tu fuente de conocimiento principal para el diagnóstico y las propuestas es la siguiente guía técnica en formato PDF.`

const formatInstruction = `El usuario describe una vivienda o un problema de consumo. Tu función es responder con una solución estructurada en 3 partes, utilizando la información del PDF y tu expertise.

**Formato de respuesta requerido (usa Markdown):**

**1. Diagnóstico de los problemas detectados:**
[Analiza la descripción del usuario e identifica los problemas de eficiencia energética, relacionándolos con los conceptos del PDF (aislamiento, transmitancia U, puntos críticos, etc.). Sé específico.]

**2. Propuesta de dispositivos Smart Home específicos:**
[Basándote en el diagnóstico y la guía, propone dispositivos Smart Home que ayuden a mejorar la eficiencia. Relaciona cada dispositivo con una medida de rehabilitación del PDF (ej., termostato inteligente para control de calefacción/refrigeración, sensores de apertura para ventanas, etc.). Si no hay una relación directa, enfócate en la mejora de eficiencia energética que el dispositivo puede aportar. No uses nombres de marcas ficticias, sino tipos de dispositivos.]

**3. Estimación del impacto o ahorro:**
[Estima el ahorro energético y económico potencial, basándote en los datos del PDF o extrapolando de forma razonada. Menciona también otros impactos positivos como la mejora del confort, reducción de emisiones, etc. Indica un rango de amortización si es posible.]`

// BuildPrompt assembles the single prompt sent to the model. userText is
// appended verbatim.
func BuildPrompt(reference, userText string) string {
	var b strings.Builder
	b.Grow(len(roleInstruction) + len(reference) + len(formatInstruction) + len(userText) + 128)

	b.WriteString(roleInstruction)
	b.WriteString("\n\n---\n**Contexto del PDF:**\n")
	b.WriteString(reference)
	b.WriteString("\n---\n\n")
	b.WriteString(formatInstruction)
	b.WriteString("\n\n**Descripción del usuario:**\n")
	b.WriteString(userText)
	b.WriteString("\n")
	return b.String()
}
