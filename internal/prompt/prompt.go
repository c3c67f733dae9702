package prompt

import "fmt"

// CV builds the tailoring prompt for the candidate's CV.
func CV(jobAd, cvYAML string) string {
	return fmt.Sprintf(`You are a professional CV tailoring expert. Given the following job advertisement and the candidate's base CV, tailor the CV to better match the job requirements.

Job Advertisement:
%s

Base CV (YAML format):
%s

Instructions:
1. Keep all the original information (education, experience, skills, etc.)
2. Modify the summary section to highlight relevant experience for this job
3. Reorder or emphasize relevant skills and experiences
4. Adjust highlights in experience entries to better match job requirements
5. Keep the YAML structure intact
6. Return ONLY the modified YAML, no explanations

Return the tailored CV in YAML format:`, jobAd, cvYAML)
}

// CoverLetter builds the prompt that turns the cover letter template into a
// letter for this job.
func CoverLetter(jobAd, coverLetterYAML string) string {
	return fmt.Sprintf(`You are a professional cover letter writer. Given the following job advertisement and the candidate's base cover letter template, write a tailored cover letter.

Job Advertisement:
%s

Base Cover Letter Template (YAML format):
%s

Instructions:
1. Extract the position title, company name, and key requirements from the job ad
2. Replace all placeholders like [Date], [Recipient Name], [Company Name], [Position Title], etc. with appropriate values
3. Write compelling paragraphs that connect the candidate's experience to the job requirements
4. Keep the professional tone
5. Maintain the YAML structure with the sections field
6. Return ONLY the modified YAML, no explanations

Return the tailored cover letter in YAML format:`, jobAd, coverLetterYAML)
}

// Instruction is the system instruction given to the agent backend.
func Instruction() string {
	return `
	You are an expert AI career assistant that tailors a candidate's application documents to a job advertisement.

Your goal is to:
- Read the job advertisement and the candidate's document carefully.
- Follow the numbered instructions in each message exactly.
- Preserve every fact in the candidate's document. Do not make up experience.

Return only valid YAML. Do not include explanations or text before or after the YAML.
	`
}
