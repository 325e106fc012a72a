package outreach

// Content is everything the conversation sends or matches on. Defaults come
// from DefaultContent and may be overridden from a YAML file.
type Content struct {
	Affirmative      []string      `yaml:"affirmative"`
	Negative         []string      `yaml:"negative"`
	AffirmativeReply string        `yaml:"affirmative_reply"`
	NegativeReply    string        `yaml:"negative_reply"`
	Document         MediaAsset    `yaml:"document"`
	Image            MediaAsset    `yaml:"image"`
	Prompt           PromptContent `yaml:"prompt"`
}

// MediaAsset points at a local file or an s3:// object.
type MediaAsset struct {
	Path    string `yaml:"path"`
	Caption string `yaml:"caption"`
}

type PromptContent struct {
	Text    string   `yaml:"text"`
	Options []string `yaml:"options"`
	Title   string   `yaml:"title"`
	Footer  string   `yaml:"footer"`
}

func DefaultContent() Content {
	return Content{
		Affirmative: []string{
			"si", "sí", "interesado", "quiero informacion", "quiero mas informacion",
			"más informacion", "mas informacion", "informacion", "de que se trata",
			"como es", "si estoy interesada", "si estoy interesado",
		},
		Negative: []string{
			"no", "no estoy interesado", "no me interesa", "ya no me interesa",
			"no gracias", "no sra gracias", "no señora gracias", "ya no estoy interesada",
			"no, no me interesa adquirirlo en este momento",
			"no, no estoy interesado en ningún producto",
			"no ya no estoy interesado muchas gracias",
			"en el momento no me interesa",
			"no, ya no estoy interesado en adquirirlo en este momento.",
		},
		AffirmativeReply: "Gracias por tu interés. Te enviaré más información.",
		NegativeReply:    "Entendido. Si cambias de opinión, estoy para ayudarte.",
		Document: MediaAsset{
			Path:    "material/Comparativo_PAC_medico_2023.pdf",
			Caption: "Tu salud merece comodidad y calidad. Con el Plan Alfa tienes consulta médica domiciliaria y más.",
		},
		Image: MediaAsset{
			Path:    "material/precios.jpeg",
			Caption: "Tarifas. ¿En qué momento le puedo llamar?",
		},
		Prompt: PromptContent{
			Text:    "¿Qué deseas hacer ahora?",
			Options: []string{"Ver más", "Contactar", "No gracias"},
			Title:   "Información adicional",
			Footer:  "Selecciona una opción",
		},
	}
}

// Merge fills every empty field of c from fallback.
func (c Content) Merge(fallback Content) Content {
	if len(c.Affirmative) == 0 {
		c.Affirmative = fallback.Affirmative
	}
	if len(c.Negative) == 0 {
		c.Negative = fallback.Negative
	}
	if c.AffirmativeReply == "" {
		c.AffirmativeReply = fallback.AffirmativeReply
	}
	if c.NegativeReply == "" {
		c.NegativeReply = fallback.NegativeReply
	}
	if c.Document.Path == "" {
		c.Document = fallback.Document
	}
	if c.Image.Path == "" {
		c.Image = fallback.Image
	}
	if c.Prompt.Text == "" {
		c.Prompt.Text = fallback.Prompt.Text
	}
	if len(c.Prompt.Options) == 0 {
		c.Prompt.Options = fallback.Prompt.Options
	}
	if c.Prompt.Title == "" {
		c.Prompt.Title = fallback.Prompt.Title
	}
	if c.Prompt.Footer == "" {
		c.Prompt.Footer = fallback.Prompt.Footer
	}
	return c
}
