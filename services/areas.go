package services

import (
	"sort"
	"strings"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"scholar-scope/models"
)

// Konfidenz-Stufen der Fachgebiets-Zuordnung, je nach Art des Treffers.
const (
	confidenceVenueAcronym = 0.9
	confidenceVenue        = 0.75
	confidenceKeyword      = 0.55
)

// TagResult ist ein Fachgebiets-Treffer für eine Publikation.
type TagResult struct {
	AreaName   string
	Confidence float64
	MatchKind  string
}

// areaSpec beschreibt einen Taxonomie-Knoten samt Matching-Regeln.
// Acronyms matchen als eigenständiges Wort im Venue, VenueTerms als
// Substring im Venue, Keywords als Substring in Titel+Venue+Keywords.
type areaSpec struct {
	Name       string
	Parent     string
	Acronyms   []string
	VenueTerms []string
	Keywords   []string
}

// defaultTaxonomy ist die eingebaute zweistufige Fachgebiets-Taxonomie.
var defaultTaxonomy = []areaSpec{
	{Name: "Statistics & Probability"},
	{Name: "Bayesian Methods", Parent: "Statistics & Probability",
		Keywords: []string{"bayesian", "posterior", "prior distribution", "mcmc", "gibbs sampling", "variational inference"}},
	{Name: "Statistical Theory", Parent: "Statistics & Probability",
		Acronyms:   []string{"aos", "jrss"},
		VenueTerms: []string{"annals of statistics", "biometrika", "journal of the american statistical association", "statistical science", "journal of the royal statistical society"},
		Keywords:   []string{"asymptotic", "estimator", "hypothesis test", "confidence interval", "nonparametric", "regression analysis"}},
	{Name: "Probability Theory", Parent: "Statistics & Probability",
		VenueTerms: []string{"annals of probability", "probability theory and related fields", "stochastic processes"},
		Keywords:   []string{"stochastic", "martingale", "brownian motion", "random walk", "markov chain", "large deviations"}},

	{Name: "Computer Science & AI"},
	{Name: "Machine Learning", Parent: "Computer Science & AI",
		Acronyms:   []string{"neurips", "nips", "icml", "iclr", "aistats", "colt", "jmlr"},
		VenueTerms: []string{"machine learning", "neural information processing"},
		Keywords:   []string{"deep learning", "neural network", "reinforcement learning", "gradient descent", "transformer", "representation learning", "supervised learning"}},
	{Name: "Computer Vision", Parent: "Computer Science & AI",
		Acronyms:   []string{"cvpr", "iccv", "eccv", "wacv", "bmvc"},
		VenueTerms: []string{"computer vision", "pattern recognition", "image processing"},
		Keywords:   []string{"object detection", "image segmentation", "image classification", "pose estimation", "optical flow"}},
	{Name: "Natural Language Processing", Parent: "Computer Science & AI",
		Acronyms:   []string{"acl", "emnlp", "naacl", "coling"},
		VenueTerms: []string{"computational linguistics", "natural language"},
		Keywords:   []string{"language model", "machine translation", "text classification", "named entity", "question answering", "sentiment analysis"}},
	{Name: "Artificial Intelligence", Parent: "Computer Science & AI",
		Acronyms:   []string{"aaai", "ijcai", "kdd", "uai"},
		VenueTerms: []string{"artificial intelligence", "data mining", "knowledge discovery"},
		Keywords:   []string{"knowledge graph", "planning", "multi-agent", "recommender system", "anomaly detection"}},
	{Name: "Systems & Networks", Parent: "Computer Science & AI",
		Acronyms:   []string{"sosp", "osdi", "nsdi", "sigcomm", "vldb", "sigmod"},
		VenueTerms: []string{"operating systems", "distributed systems", "computer networks", "database systems"},
		Keywords:   []string{"distributed system", "fault tolerance", "consensus protocol", "query processing", "network protocol"}},

	{Name: "Mathematics"},
	{Name: "Optimization", Parent: "Mathematics",
		VenueTerms: []string{"mathematical programming", "siam journal on optimization", "optimization methods"},
		Keywords:   []string{"convex optimization", "linear programming", "integer programming", "combinatorial optimization", "gradient method"}},
	{Name: "Applied Mathematics", Parent: "Mathematics",
		Acronyms:   []string{"siam"},
		VenueTerms: []string{"applied mathematics", "numerical analysis"},
		Keywords:   []string{"differential equation", "numerical method", "finite element", "dynamical system", "partial differential"}},

	{Name: "Bioinformatics & Genetics"},
	{Name: "Genomics", Parent: "Bioinformatics & Genetics",
		Acronyms:   []string{"recomb", "ismb"},
		VenueTerms: []string{"bioinformatics", "nucleic acids research", "genome biology", "nature genetics", "bmc genomics"},
		Keywords:   []string{"genome", "gene expression", "sequencing", "rna-seq", "gwas", "snp", "transcriptom"}},
	{Name: "Computational Biology", Parent: "Bioinformatics & Genetics",
		VenueTerms: []string{"plos computational biology", "journal of computational biology"},
		Keywords:   []string{"protein structure", "phylogenetic", "systems biology", "molecular dynamics", "sequence alignment"}},

	{Name: "Economics & Finance"},
	{Name: "Econometrics", Parent: "Economics & Finance",
		VenueTerms: []string{"econometrica", "journal of econometrics", "econometric"},
		Keywords:   []string{"econometric", "panel data", "instrumental variable", "causal inference", "time series"}},
	{Name: "Finance", Parent: "Economics & Finance",
		VenueTerms: []string{"journal of finance", "review of financial studies", "journal of financial economics"},
		Keywords:   []string{"asset pricing", "portfolio", "option pricing", "volatility", "risk management", "market microstructure"}},

	{Name: "Medicine & Health Sciences"},
	{Name: "Epidemiology", Parent: "Medicine & Health Sciences",
		VenueTerms: []string{"epidemiology", "lancet", "new england journal of medicine", "jama", "bmj"},
		Keywords:   []string{"epidemiolog", "clinical trial", "cohort study", "public health", "randomized controlled", "mortality"}},
	{Name: "Medical Imaging", Parent: "Medicine & Health Sciences",
		Acronyms:   []string{"miccai", "isbi"},
		VenueTerms: []string{"medical imaging", "medical image analysis", "radiology"},
		Keywords:   []string{"mri", "ct scan", "ultrasound", "tumor segmentation", "radiograph"}},

	{Name: "Environmental & Earth Sciences"},
	{Name: "Climate Science", Parent: "Environmental & Earth Sciences",
		VenueTerms: []string{"nature climate change", "journal of climate", "geophysical research"},
		Keywords:   []string{"climate change", "global warming", "carbon emission", "sea level", "precipitation", "atmospheric"}},
	{Name: "Ecology", Parent: "Environmental & Earth Sciences",
		VenueTerms: []string{"ecology letters", "journal of ecology", "conservation biology"},
		Keywords:   []string{"biodiversity", "ecosystem", "species distribution", "habitat", "conservation"}},

	{Name: "Social Sciences"},
	{Name: "Psychology", Parent: "Social Sciences",
		VenueTerms: []string{"psychological science", "journal of personality", "cognition"},
		Keywords:   []string{"cognitive", "behavioral", "psycholog", "perception", "decision making"}},
	{Name: "Sociology", Parent: "Social Sciences",
		VenueTerms: []string{"american sociological review", "social networks", "american journal of sociology"},
		Keywords:   []string{"social network", "inequality", "social capital", "survey data"}},

	{Name: "Preprints & Working Papers",
		Acronyms:   []string{"arxiv", "biorxiv", "medrxiv", "ssrn"},
		VenueTerms: []string{"preprint", "working paper", "technical report"}},
}

// ResearchAreaClassifier ordnet Publikationen Taxonomie-Knoten zu.
// Venue-Treffer schlagen Keyword-Treffer; pro Knoten gewinnt der
// beste Treffer. Keine Treffer sind ein gültiges Ergebnis.
type ResearchAreaClassifier struct{}

// NewResearchAreaClassifier erstellt einen Classifier ohne Zustand.
func NewResearchAreaClassifier() *ResearchAreaClassifier {
	return &ResearchAreaClassifier{}
}

// Classify liefert alle Fachgebiets-Treffer für die Publikation,
// absteigend nach Konfidenz sortiert.
func (c *ResearchAreaClassifier) Classify(pub *models.Publication) []TagResult {
	venue := strings.ToLower(pub.Venue)
	venueWords := fieldSet(venue)
	fullText := strings.ToLower(pub.Title + " " + pub.Venue + " " + pub.Keywords + " " + pub.Abstract)

	best := make(map[string]TagResult)
	for _, spec := range defaultTaxonomy {
		var hit *TagResult
		for _, acr := range spec.Acronyms {
			if _, ok := venueWords[acr]; ok {
				hit = &TagResult{AreaName: spec.Name, Confidence: confidenceVenueAcronym, MatchKind: "venue_acronym"}
				break
			}
		}
		if hit == nil {
			for _, term := range spec.VenueTerms {
				if strings.Contains(venue, term) {
					hit = &TagResult{AreaName: spec.Name, Confidence: confidenceVenue, MatchKind: "venue"}
					break
				}
			}
		}
		if hit == nil {
			for _, kw := range spec.Keywords {
				if strings.Contains(fullText, kw) {
					hit = &TagResult{AreaName: spec.Name, Confidence: confidenceKeyword, MatchKind: "keyword"}
					break
				}
			}
		}
		if hit == nil {
			continue
		}
		if prev, ok := best[spec.Name]; !ok || hit.Confidence > prev.Confidence {
			best[spec.Name] = *hit
		}
		// Treffer auf einer Unterebene taggt auch die Wurzel mit
		if spec.Parent != "" {
			if prev, ok := best[spec.Parent]; !ok || hit.Confidence > prev.Confidence {
				best[spec.Parent] = TagResult{AreaName: spec.Parent, Confidence: hit.Confidence, MatchKind: hit.MatchKind}
			}
		}
	}

	results := make([]TagResult, 0, len(best))
	for _, r := range best {
		results = append(results, r)
	}
	sort.Slice(results, func(i, j int) bool {
		if results[i].Confidence != results[j].Confidence {
			return results[i].Confidence > results[j].Confidence
		}
		return results[i].AreaName < results[j].AreaName
	})
	return results
}

// fieldSet zerlegt einen Text in ein Wort-Set (nur Buchstaben/Ziffern).
func fieldSet(text string) map[string]struct{} {
	set := make(map[string]struct{})
	for _, w := range strings.FieldsFunc(text, func(r rune) bool {
		return !(r >= 'a' && r <= 'z') && !(r >= '0' && r <= '9')
	}) {
		set[w] = struct{}{}
	}
	return set
}

// SeedResearchAreas legt die eingebaute Taxonomie an, falls sie fehlt.
// Bestehende Knoten bleiben unverändert.
func SeedResearchAreas(db *gorm.DB, logger *zap.Logger) error {
	idByName := make(map[string]uint)

	// Wurzeln zuerst, damit ParentID auflösbar ist
	for pass := 0; pass < 2; pass++ {
		for _, spec := range defaultTaxonomy {
			isRoot := spec.Parent == ""
			if (pass == 0) != isRoot {
				continue
			}

			var area models.ResearchArea
			err := db.Where("name = ?", spec.Name).First(&area).Error
			if err == nil {
				idByName[area.Name] = area.ID
				continue
			}
			if err != gorm.ErrRecordNotFound {
				return err
			}

			area = models.ResearchArea{Name: spec.Name}
			if !isRoot {
				parentID, ok := idByName[spec.Parent]
				if !ok {
					continue
				}
				area.ParentID = &parentID
				area.Level = 1
			}
			if err := db.Create(&area).Error; err != nil {
				return err
			}
			idByName[area.Name] = area.ID
			logger.Info("Fachgebiet angelegt", zap.String("name", area.Name), zap.Int("level", area.Level))
		}
	}
	return nil
}
