// internal/evidence/vocab.go
package evidence

// Curated vocabularies for the layered matchers. These are copied into each
// extractor at construction so callers can never mutate shared state.

// Professional credentials matched with whole-word, case-sensitive regex in
// the exact pass. Kept upper-case; normalization preserves the casing.
var credentialVocab = []string{
	"MD", "DO", "JD", "PE", "RN", "NP", "PA", "PhD", "PharmD", "DDS", "DVM",
	"CPA", "CFA", "LPN", "EMT", "EIT", "Esq", "MBA", "MPH", "MSN", "LCSW",
	"OD", "DPT", "CRNA", "FNP", "RDN", "BSN",
}

// Compliance and standards terms for the exact pass.
var complianceVocab = []string{
	"HIPAA", "GDPR", "SOC 2", "ISO 27001", "ISO 9001", "FDA", "FINRA", "PCI DSS",
	"FERPA", "CCPA", "OSHA", "GxP", "CLIA", "IRB",
}

// Tech-stack tokens for the exact pass.
var techVocab = []string{
	"python", "sql", "javascript", "typescript", "java", "golang", "rust",
	"kubernetes", "terraform", "pytorch", "tensorflow", "pandas", "spark",
	"react", "postgresql", "mongodb", "matlab", "sas", "stata", "tableau",
	"autocad", "solidworks", "excel",
}

// Human-language names. Only kept as evidence when they appear near a
// subject-matter cue word; a candidate's native tongue is not expertise.
var languageNames = []string{
	"english", "spanish", "french", "german", "portuguese", "italian",
	"mandarin", "cantonese", "japanese", "korean", "arabic", "hindi",
	"bengali", "russian", "dutch", "polish", "turkish", "vietnamese",
	"thai", "indonesian", "swahili", "tagalog", "urdu", "farsi", "hebrew",
}

// Cue words that legitimize a nearby language token as subject matter.
var languageCueWords = []string{
	"content", "corpus", "dataset", "material", "linguistic",
	"translation", "transcription",
}

// Common stopwords excluded from the token and phrase scanners.
var stopwords = []string{
	"the", "and", "for", "with", "that", "this", "from", "have", "has",
	"are", "was", "were", "will", "would", "should", "could", "been",
	"being", "about", "after", "before", "between", "into", "through",
	"during", "under", "over", "our", "your", "their", "they", "you",
	"all", "any", "both", "each", "more", "most", "other", "some", "such",
	"than", "then", "these", "those", "very", "can", "just", "also",
	"its", "per", "via", "etc", "who", "what", "when", "where", "which",
	"while", "must", "may", "not", "but", "nor", "too", "own", "same",
	"able", "well", "use", "used", "using", "within", "without", "including",
}

// Soft-blocklist: soft skills, logistics, and pay/schedule words that carry no
// subject-matter signal.
var softBlocklist = []string{
	"communication", "teamwork", "motivated", "detail", "oriented",
	"flexible", "reliable", "organized", "passionate", "enthusiastic",
	"hardworking", "proactive", "interpersonal", "leadership", "collaborative",
	"punctual", "adaptable", "self-starter", "multitasking",
	"hourly", "salary", "rate", "pay", "payment", "compensation", "bonus",
	"schedule", "shift", "shifts", "hours", "weekly", "remote", "onsite",
	"deadline", "deadlines", "availability", "available", "start", "apply",
	"application", "candidates", "position", "role", "opportunity", "job",
	"work", "working", "team", "company", "please", "required", "requirements",
	"preferred", "must", "minimum", "years", "experience", "benefits",
}

// Labeling/task vocabulary for the task-evidence extractor: platform names,
// annotation task types, and model-training terms.
var taskVocab = []string{
	"rlhf", "sft", "dpo", "rlaif", "annotation", "annotating", "labeling",
	"labelling", "transcription", "segmentation", "classification",
	"moderation", "rating", "ranking", "evaluation", "red-teaming",
	"bounding box", "bounding boxes", "polygon annotation", "image tagging",
	"named entity recognition", "sentiment analysis", "content moderation",
	"data collection", "prompt writing", "response ranking",
	"side-by-side evaluation", "model evaluation", "preference ranking",
	"audio transcription", "video annotation", "text classification",
	"search relevance", "ocr verification",
	"scale ai", "appen", "surge ai", "labelbox", "mturk", "mechanical turk",
	"prolific", "toloka", "remotasks", "dataannotation", "outlier ai",
	"clickworker", "telus international", "lionbridge",
}
