package research

import "time"

// Hand-authored fallback shapes. Every field of the stage's output type is
// populated with generic values so downstream stages never see a partial
// object. Fallbacks are never written to the cache.

// DefaultProfile is substituted when a user has no stored profile.
func DefaultProfile() UserProfile {
	return UserProfile{
		Name:    "Candidat MotivAI",
		Email:   "candidat@motivai.app",
		Summary: "Professionnel motivé avec une expérience polyvalente et une forte capacité d'adaptation.",
		Skills:  []string{"Communication", "Travail d'équipe", "Résolution de problèmes", "Organisation"},
		Experience: []ExperienceEntry{
			{
				Title:       "Professionnel expérimenté",
				Company:     "Divers employeurs",
				Period:      "Ces dernières années",
				Description: "Expérience professionnelle variée avec des responsabilités croissantes.",
			},
		},
		Education: []EducationEntry{
			{Degree: "Formation supérieure", School: "Établissement reconnu", Year: ""},
		},
		Languages: []string{"Français", "Anglais"},
		Interests: []string{"Technologie", "Développement personnel"},
	}
}

func fallbackCompanyInfo(name string) CompanyInfo {
	return CompanyInfo{
		Name:            name,
		Industry:        "Secteur d'activité",
		Description:     name + " est une entreprise reconnue dans son secteur.",
		Values:          []string{"Innovation", "Excellence", "Collaboration"},
		RecentNews:      []string{"Croissance continue de l'activité"},
		Culture:         "Culture d'entreprise dynamique et collaborative",
		Size:            "Taille non communiquée",
		Founded:         "Non communiqué",
		Headquarters:    "Non communiqué",
		KeyPeople:       []string{"Équipe de direction expérimentée"},
		Products:        []string{"Produits et services du secteur"},
		Competitors:     []string{"Acteurs du même secteur"},
		SocialImpact:    "Engagement dans des initiatives responsables",
		WorkEnvironment: "Environnement de travail moderne",
	}
}

func fallbackJobContext(title, company string) JobContext {
	return JobContext{
		Title:            title,
		Company:          company,
		Seniority:        "Confirmé",
		KeyRequirements:  []string{"Maîtrise du domaine", "Autonomie", "Esprit d'équipe"},
		Responsibilities: []string{"Contribuer aux projets de l'équipe", "Collaborer avec les parties prenantes"},
		Keywords:         []string{title, company},
		Tone:             "professionnel",
	}
}

func fallbackConnectionPoints(profile UserProfile, company CompanyInfo, job JobContext) []ConnectionPoint {
	points := []ConnectionPoint{
		{
			Topic:          "Compétences",
			ProfileElement: firstOr(profile.Skills, "Compétences transférables"),
			CompanyElement: firstOr(company.Values, "les valeurs de l'entreprise"),
			Pitch:          "Mes compétences correspondent aux attentes du poste de " + job.Title + ".",
		},
		{
			Topic:          "Motivation",
			ProfileElement: "Parcours professionnel",
			CompanyElement: company.Name,
			Pitch:          "Je suis motivé à l'idée de contribuer aux projets de " + company.Name + ".",
		},
		{
			Topic:          "Culture",
			ProfileElement: "Capacité d'adaptation",
			CompanyElement: company.Culture,
			Pitch:          "Je m'intègre facilement dans des environnements collaboratifs.",
		},
	}
	return points
}

func fallbackCVAnalysis() CVAnalysis {
	return CVAnalysis{
		Score:           65,
		Summary:         "CV solide avec des axes d'amélioration identifiés.",
		Strengths:       []string{"Expérience pertinente", "Parcours cohérent"},
		Weaknesses:      []string{"Quantification des résultats à renforcer"},
		Suggestions:     []string{"Ajouter des résultats chiffrés", "Adapter le CV à chaque offre"},
		MissingKeywords: []string{"Mots-clés du secteur visé"},
	}
}

func fallbackJobMatch(job JobContext) JobMatch {
	return JobMatch{
		Score:           60,
		Verdict:         "Profil globalement compatible avec le poste de " + job.Title + ".",
		MatchingSkills:  []string{"Compétences générales du poste"},
		MissingSkills:   []string{"Compétences spécialisées à vérifier"},
		Recommendations: []string{"Mettre en avant les expériences les plus proches du poste"},
	}
}

func fallbackMarketInsights(date time.Time) MarketInsights {
	return MarketInsights{
		Date:                date.Format("2006-01-02"),
		TrendingSkills:      []string{"IA générative", "Analyse de données", "Cloud", "Cybersécurité"},
		HotIndustries:       []string{"Technologie", "Santé", "Énergie"},
		AverageApplications: 42,
		InterviewRate:       0.18,
		Advice: []string{
			"Personnalisez chaque candidature",
			"Activez votre réseau professionnel",
			"Valorisez vos résultats mesurables",
		},
	}
}

func firstOr(list []string, fallback string) string {
	if len(list) > 0 {
		return list[0]
	}
	return fallback
}
