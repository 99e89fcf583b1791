package search

const (
	vectorAlgorithmName = "hnsw-config"
	vectorProfileName   = "vector-profile"
	VectorField         = "contentVector"
)

const (
	TypeString      = "Edm.String"
	TypeStringList  = "Collection(Edm.String)"
	TypeVectorFloat = "Collection(Edm.Single)"
)

// Field mirrors the index field definition accepted by the search service.
type Field struct {
	Name          string `json:"name"`
	Type          string `json:"type"`
	Key           bool   `json:"key,omitempty"`
	Searchable    bool   `json:"searchable"`
	Filterable    bool   `json:"filterable"`
	Facetable     bool   `json:"facetable"`
	Retrievable   *bool  `json:"retrievable,omitempty"`
	Dimensions    int    `json:"dimensions,omitempty"`
	VectorProfile string `json:"vectorSearchProfile,omitempty"`
}

type HNSWParameters struct {
	M              int    `json:"m"`
	EfConstruction int    `json:"efConstruction"`
	EfSearch       int    `json:"efSearch"`
	Metric         string `json:"metric"`
}

type VectorAlgorithm struct {
	Name       string         `json:"name"`
	Kind       string         `json:"kind"`
	Parameters HNSWParameters `json:"hnswParameters"`
}

type VectorProfile struct {
	Name      string `json:"name"`
	Algorithm string `json:"algorithm"`
}

type VectorSearch struct {
	Algorithms []VectorAlgorithm `json:"algorithms"`
	Profiles   []VectorProfile   `json:"profiles"`
}

type IndexSchema struct {
	Name         string        `json:"name"`
	Fields       []Field       `json:"fields"`
	VectorSearch *VectorSearch `json:"vectorSearch,omitempty"`
}

func keyField(name string) Field {
	return Field{Name: name, Type: TypeString, Key: true, Filterable: true}
}

func textField(name string, filterable bool) Field {
	return Field{Name: name, Type: TypeString, Searchable: true, Filterable: filterable, Facetable: filterable}
}

func simpleField(name string) Field {
	return Field{Name: name, Type: TypeString, Filterable: true, Facetable: true}
}

func listField(name string, filterable bool) Field {
	return Field{Name: name, Type: TypeStringList, Searchable: true, Filterable: filterable, Facetable: filterable}
}

func vectorField(dims int) Field {
	return Field{
		Name:          VectorField,
		Type:          TypeVectorFloat,
		Searchable:    true,
		Dimensions:    dims,
		VectorProfile: vectorProfileName,
	}
}

func defaultVectorSearch() *VectorSearch {
	return &VectorSearch{
		Algorithms: []VectorAlgorithm{{
			Name: vectorAlgorithmName,
			Kind: "hnsw",
			Parameters: HNSWParameters{
				M:              4,
				EfConstruction: 400,
				EfSearch:       500,
				Metric:         "cosine",
			},
		}},
		Profiles: []VectorProfile{{Name: vectorProfileName, Algorithm: vectorAlgorithmName}},
	}
}

// QuestionIndexSchema is the interview question bank index.
func QuestionIndexSchema(name string, dims int) IndexSchema {
	return IndexSchema{
		Name: name,
		Fields: []Field{
			keyField("id"),
			textField("question", false),
			textField("category", true),
			simpleField("difficulty"),
			textField("context", false),
			textField("sample_answer", false),
			vectorField(dims),
			listField("tags", true),
			textField("position", true),
			simpleField("experience_level"),
			textField("tech_stack", true),
			listField("evaluation_criteria", false),
		},
		VectorSearch: defaultVectorSearch(),
	}
}

// KnowledgeIndexSchema is the course material study question index.
func KnowledgeIndexSchema(name string, dims int) IndexSchema {
	return IndexSchema{
		Name: name,
		Fields: []Field{
			keyField("id"),
			textField("question", false),
			textField("answer", false),
			textField("process_category", true),
			textField("question_type", true),
			simpleField("difficulty"),
			textField("theory", false),
			textField("source", false),
			vectorField(dims),
			listField("keywords", true),
			listField("related_concepts", false),
		},
		VectorSearch: defaultVectorSearch(),
	}
}
