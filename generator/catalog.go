package generator

// Audience describes how content should address one target group.
type Audience struct {
	Name  string `json:"name" yaml:"name"`
	Tone  string `json:"tone" yaml:"tone"`
	Focus string `json:"focus" yaml:"focus"`
}

// ContentPackage 内容套餐及其交付物。
type ContentPackage struct {
	Name         string   `json:"name" yaml:"name"`
	Deliverables []string `json:"deliverables" yaml:"deliverables"`
}

type Platform struct {
	Name string `json:"name" yaml:"name"`
	URL  string `json:"url" yaml:"url"`
}

// Catalog lists the choices offered for each request field.
type Catalog struct {
	Categories     []string         `json:"categories" yaml:"categories"`
	Audiences      []Audience       `json:"audiences" yaml:"audiences"`
	Packages       []ContentPackage `json:"packages" yaml:"packages"`
	VideoLengths   []string         `json:"video_lengths" yaml:"video_lengths"`
	Depths         []Depth          `json:"depths" yaml:"depths"`
	ImageSizes     []string         `json:"image_sizes" yaml:"image_sizes"`
	VideoPlatforms []Platform       `json:"video_platforms" yaml:"video_platforms"`
}

// DefaultCatalog returns a fresh copy of the built-in catalog.
func DefaultCatalog() Catalog {
	return Catalog{
		Categories: []string{
			"Environment (air quality)",
			"Safety (traffic, accidents)",
			"ESG (recycling, waste)",
			"Education (schools, youth)",
			"Welfare (vulnerable groups)",
			"Urban (cleaning, order)",
			"Industry (business, regulation)",
			"Culture and tourism",
			"Transport and parking",
			"Housing and construction",
		},
		Audiences: []Audience{
			{Name: "Citizens", Tone: "friendly and easy to follow", Focus: "everyday benefits, visible change"},
			{Name: "Young adults", Tone: "trendy and direct", Focus: "more opportunity, future outlook"},
			{Name: "Seniors", Tone: "kind and warm", Focus: "safety, convenience, accessibility"},
			{Name: "Parents", Tone: "trustworthy and concrete", Focus: "child safety, education outcomes"},
			{Name: "Businesses", Tone: "professional and efficient", Focus: "cost savings, deregulation, ROI"},
			{Name: "Local officials", Tone: "structured and practical", Focus: "feasibility, budget, legal basis"},
			{Name: "Council members", Tone: "persuasive and evidence-led", Focus: "policy effect, public perception, outcome indicators"},
		},
		Packages: []ContentPackage{
			{Name: "A Marketing", Deliverables: []string{"2 images", "1 video", "3 copy variants"}},
			{Name: "B Policy briefing", Deliverables: []string{"policy summary", "PPT outline", "FAQ"}},
			{Name: "C Full package", Deliverables: []string{"4 images", "2 videos", "5 copy variants", "policy document", "PPT", "KPIs"}},
		},
		VideoLengths: []string{"10s", "20s", "30s"},
		Depths:       []Depth{DepthNormal, DepthDeep, DepthVeryDeep},
		ImageSizes:   []string{"1024x1024", "1024x1792", "1792x1024"},
		VideoPlatforms: []Platform{
			{Name: "Sora", URL: "https://sora.openai.com"},
			{Name: "Runway", URL: "https://runwayml.com"},
			{Name: "Pika", URL: "https://pika.art"},
			{Name: "Luma Dream Machine", URL: "https://lumalabs.ai"},
		},
	}
}

// Audience looks up a target group by name.
func (c Catalog) Audience(name string) (Audience, bool) {
	for _, a := range c.Audiences {
		if a.Name == name {
			return a, true
		}
	}
	return Audience{}, false
}
