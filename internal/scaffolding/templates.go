package scaffolding

// ComponentTemplate is a starting point for a new component file. Content is
// a text/template using [[ ]] delimiters, so mtb's own {{Tag}} and ${prop}
// syntax passes through untouched.
type ComponentTemplate struct {
	Name        string
	Description string
	Category    string
	Parameters  []TemplateParameter
	Content     string
}

// TemplateParameter documents a ${prop} the template reads.
type TemplateParameter struct {
	Name         string
	DefaultValue string
	Description  string
	Required     bool
}

// TemplateContext holds the values available to a template.
type TemplateContext struct {
	ComponentName string
	Title         string
	Slug          string
	Parameters    []TemplateParameter
	Date          string
}

// DefaultTemplate is used when no template is requested.
const DefaultTemplate = "basic"

// GetBuiltinTemplates returns all built-in component templates
func GetBuiltinTemplates() map[string]ComponentTemplate {
	return map[string]ComponentTemplate{
		"basic":  getBasicTemplate(),
		"button": getButtonTemplate(),
		"card":   getCardTemplate(),
		"hero":   getHeroTemplate(),
		"nav":    getNavTemplate(),
		"footer": getFooterTemplate(),
	}
}

func getBasicTemplate() ComponentTemplate {
	return ComponentTemplate{
		Name:        "basic",
		Description: "Plain block with a heading",
		Category:    "content",
		Content: `<!-- [[.ComponentName]] ([[.Date]]) -->
<div class="[[.Slug]]">
  <h2>[[.Title]]</h2>
</div>
`,
	}
}

func getButtonTemplate() ComponentTemplate {
	return ComponentTemplate{
		Name:        "button",
		Description: "Link styled as a button",
		Category:    "ui",
		Parameters: []TemplateParameter{
			{Name: "text", Description: "Button label", Required: true},
			{Name: "href", DefaultValue: "#", Description: "Link target", Required: true},
		},
		Content: `<a class="btn" href="${href}">${text}</a>
`,
	}
}

func getCardTemplate() ComponentTemplate {
	return ComponentTemplate{
		Name:        "card",
		Description: "Card with a title and body text",
		Category:    "content",
		Parameters: []TemplateParameter{
			{Name: "title", Description: "Card heading", Required: true},
			{Name: "body", Description: "Card text"},
		},
		Content: `<div class="card [[.Slug]]">
  <h3>${title}</h3>
  <p>${body}</p>
</div>
`,
	}
}

func getHeroTemplate() ComponentTemplate {
	return ComponentTemplate{
		Name:        "hero",
		Description: "Landing page hero section with a call to action",
		Category:    "layout",
		Parameters: []TemplateParameter{
			{Name: "title", Description: "Main heading", Required: true},
			{Name: "subtitle", Description: "Text under the heading"},
		},
		Content: `<section class="hero">
  <h1>${title}</h1>
  <p>${subtitle}</p>
  {{ui/Button text="Get started" href="#start"}}
</section>
`,
	}
}

func getNavTemplate() ComponentTemplate {
	return ComponentTemplate{
		Name:        "nav",
		Description: "Site navigation bar",
		Category:    "layout",
		Content: `<nav class="[[.Slug]]">
  <a href="/">Home</a>
</nav>
`,
	}
}

func getFooterTemplate() ComponentTemplate {
	return ComponentTemplate{
		Name:        "footer",
		Description: "Page footer",
		Category:    "layout",
		Parameters: []TemplateParameter{
			{Name: "owner", Description: "Copyright holder"},
		},
		Content: `<footer class="[[.Slug]]">
  <p>&copy; ${owner}</p>
</footer>
`,
	}
}
