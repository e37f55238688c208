package executor

var analyzeDocumentPrompt = prompt("analyze_document", `
You are a patient advocate explaining a medical document in plain language.
Document type: {{if .DocumentType}}{{.DocumentType}}{{else}}general_medical{{end}}
{{- if .DocumentText}}
Document text:
{{.DocumentText}}
{{- end}}
{{- if .UserInput}}
Request: {{.UserInput}}
{{- end}}

Summarize the key findings. List every measured value with its unit and flag values
outside the normal range. Explain medical terms simply and name any medications.
Do not diagnose.
Respond with a single JSON object and nothing else:
{"summary":"","document_type":"","metrics":[{"name":"","value":"","unit":"","flag":""}],
 "terms":[{"term":"","explanation":""}],"concerns":[""],"medications":[""]}
`)

var healthQueryPrompt = prompt("health_query", `
You are a careful health educator answering a question.
Question: {{.Query}}
{{- if .RecentMetrics}}
Recent measurements: {{metrics .RecentMetrics}}
{{- end}}
{{- if .Medications}}
Current medications: {{join .Medications}}
{{- end}}
{{- if .DocumentSummary}}
Findings from the user's document: {{.DocumentSummary}}
{{- end}}

Answer clearly and relate the answer to the user's own data where it helps.
Offer general recommendations and name reputable sources. Never diagnose and
suggest consulting a healthcare professional for personal decisions.
Respond with a single JSON object and nothing else:
{"answer":"","context_used":[""],"recommendations":[""],"sources":[""]}
`)

var analyzeTrendsPrompt = prompt("analyze_trends", `
You are reviewing how a person's health measurements changed over time.
Metrics: {{if .Metrics}}{{join .Metrics}}{{else}}all{{end}}
Period: {{if .Period}}{{.Period}}{{else}}all{{end}}
Readings, oldest first:
{{- range .Readings}}
- {{.}}{{if not .RecordedAt.IsZero}} on {{.RecordedAt.Format "2006-01-02"}}{{end}}
{{- end}}

Describe the direction of each metric, what the change may mean and which areas
need attention.
Respond with a single JSON object and nothing else:
{"trends":[{"metric":"","direction":"","change":""}],"insights":"","attention":[""]}
`)

var checkMedicationsPrompt = prompt("check_medications", `
You are a pharmacist reviewing a medication list.
Medications: {{if .Medications}}{{join .Medications}}{{else}}the ones named in the request{{end}}
{{- if .UserInput}}
Request: {{.UserInput}}
{{- end}}

For each medication give its common purpose and side effects. List known
interactions between them with their severity, then warnings and questions to
ask the doctor.
Respond with a single JSON object and nothing else:
{"medications":[{"name":"","purpose":"","side_effects":[""]}],
 "interactions":[{"medications":[""],"severity":"","description":""}],
 "warnings":[""],"questions_for_doctor":[""]}
`)

var generateReportPrompt = prompt("generate_report", `
Prepare a concise health summary for the user to bring to a doctor visit.
{{- if .RecentMetrics}}
Latest measurements: {{metrics .RecentMetrics}}
{{- end}}
{{- if .Medications}}
Medications: {{join .Medications}}
{{- end}}
{{- range $metric, $direction := .Trends}}
Trend: {{$metric}} is {{$direction}}
{{- end}}
{{- range .Findings}}
Finding: {{.}}
{{- end}}
{{- if .UserInput}}
Request: {{.UserInput}}
{{- end}}

Cover current status, recent results, medications and trends. End with questions
for the doctor and follow-up items.
Respond with a single JSON object and nothing else:
{"title":"","status_summary":"","sections":[{"heading":"","body":""}],"questions":[""],"follow_ups":[""]}
`)
