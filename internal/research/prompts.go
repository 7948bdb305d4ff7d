package research

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Prompt construction for each stage. Prompts are opaque strings as far as
// the completion client is concerned; only the stages know their shape.

const researchSystemPrompt = "You are a career-research assistant. " +
	"Always answer with a single valid JSON object and nothing else. " +
	"Use French for all human-readable text values."

const letterSystemPrompt = "Tu es un expert en rédaction de lettres de motivation percutantes et personnalisées. " +
	"Tu écris en français, dans un ton professionnel et authentique, sans formules creuses."

func companyResearchPrompt(companyName string) string {
	return fmt.Sprintf(`Research the company %q for a job applicant.
Respond with a JSON object with exactly these keys:
name, industry, description, values (array), recentNews (array), culture,
size, founded, headquarters, keyPeople (array), products (array),
competitors (array), socialImpact, workEnvironment.
If a fact is unknown, give a plausible generic value rather than omitting the key.`, companyName)
}

func jobContextPrompt(jobTitle, companyName, jobDescription string) string {
	return fmt.Sprintf(`Analyze this job posting.
Title: %s
Company: %s
Description:
%s

Respond with a JSON object with exactly these keys:
title, company, seniority, keyRequirements (array), responsibilities (array),
keywords (array), tone.`, jobTitle, companyName, jobDescription)
}

func connectionPointsPrompt(profile UserProfile, company CompanyInfo, job JobContext) string {
	p, _ := json.Marshal(profile)
	c, _ := json.Marshal(company)
	j, _ := json.Marshal(job)
	return fmt.Sprintf(`Given this candidate profile, company research and job analysis,
find 3 to 5 specific connection points linking the candidate to this company and role.

Profile: %s
Company: %s
Job: %s

Respond with a JSON array of objects with exactly these keys:
topic, profileElement, companyElement, pitch.`, p, c, j)
}

func letterPrompt(profile UserProfile, company CompanyInfo, job JobContext, points []ConnectionPoint) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Rédige une lettre de motivation pour le poste de %s chez %s.\n\n", job.Title, company.Name)
	fmt.Fprintf(&sb, "Candidat : %s — %s\n", profile.Name, profile.Summary)
	if len(profile.Skills) > 0 {
		fmt.Fprintf(&sb, "Compétences clés : %s\n", strings.Join(profile.Skills, ", "))
	}
	fmt.Fprintf(&sb, "\nEntreprise : %s (%s). %s\n", company.Name, company.Industry, company.Description)
	if len(job.KeyRequirements) > 0 {
		fmt.Fprintf(&sb, "Exigences du poste : %s\n", strings.Join(job.KeyRequirements, ", "))
	}
	if len(points) > 0 {
		sb.WriteString("\nPoints de connexion à exploiter :\n")
		for _, pt := range points {
			fmt.Fprintf(&sb, "- %s : %s\n", pt.Topic, pt.Pitch)
		}
	}
	sb.WriteString("\nLa lettre doit faire 250 à 350 mots, être structurée en paragraphes,")
	sb.WriteString(" et se terminer par une formule de politesse. Réponds uniquement avec le texte de la lettre.")
	return sb.String()
}

func cvAnalysisPrompt(cvText string) string {
	return fmt.Sprintf(`Analyze this CV as a senior recruiter would.

CV:
%s

Respond with a JSON object with exactly these keys:
score (0-100 integer), summary, strengths (array), weaknesses (array),
suggestions (array), missingKeywords (array).`, cvText)
}

func jobMatchPrompt(profile UserProfile, job JobContext) string {
	p, _ := json.Marshal(profile)
	j, _ := json.Marshal(job)
	return fmt.Sprintf(`Score how well this candidate matches this job.

Profile: %s
Job: %s

Respond with a JSON object with exactly these keys:
score (0-100 integer), verdict, matchingSkills (array), missingSkills (array),
recommendations (array).`, p, j)
}

func marketInsightsPrompt(date string) string {
	return fmt.Sprintf(`Produce a predictive job-market report for %s.

Respond with a JSON object with exactly these keys:
date (%q), trendingSkills (array), hotIndustries (array),
averageApplications (integer), interviewRate (number between 0 and 1),
advice (array of 3 short tips for job seekers).`, date, date)
}
