package rules

// Default returns the compiled-in rule set. It targets Spanish-first sales
// conversations for fitness and wellness businesses, with English variants of
// the highest-traffic keywords mixed in.
func Default() *Set {
	return &Set{
		Version:    "2026.08",
		Objection:  defaultObjectionRules(),
		Needs:      defaultNeedsRules(),
		Conversion: defaultConversionRules(),
		Fallback:   defaultFallbackRules(),
	}
}

func defaultObjectionRules() ObjectionRules {
	return ObjectionRules{
		ConfidenceThreshold: 0.65,
		ContextWindow:       5,
		SignalWeights: map[string]float64{
			"price_mentions":         0.4,
			"hesitation_words":       0.3,
			"uncertainty_phrases":    0.2,
			"comparison_phrases":     0.25,
			"trust_concerns":         0.3,
			"authority_references":   0.2,
			"feature_gaps":           0.2,
			"implementation_doubts":  0.2,
			"support_concerns":       0.2,
			"urgency_pushback":       0.25,
			"compatibility_concerns": 0.2,
		},
		SignalKeywords: map[string][]string{
			"price_mentions": {
				"precio", "costo", "caro", "cara", "costoso", "barato", "mucho",
				"presupuesto", "pagar", "mensualidad", "cuota", "descuento",
				"$", "€", "price", "expensive", "cost", "budget", "afford",
			},
			"hesitation_words": {
				"quizás", "tal vez", "no sé", "no estoy seguro", "déjame pensarlo",
				"lo pensaré", "más adelante", "luego", "maybe", "not sure",
				"think about it", "later",
			},
			"uncertainty_phrases": {
				"no entiendo", "confuso", "complicado", "duda", "dudas",
				"no me queda claro", "confusing", "complicated", "unclear",
			},
			"comparison_phrases": {
				"competencia", "otra opción", "otras opciones", "alternativa",
				"comparar", "versus", "vs", "mejor que", "competitor",
				"alternative", "compare",
			},
			"trust_concerns": {
				"confianza", "garantía", "seguro", "estafa", "riesgo", "promesa",
				"testimonios", "referencias", "trust", "guarantee", "scam", "risk",
			},
			"authority_references": {
				"mi socio", "mi jefe", "consultarlo", "decidimos juntos",
				"el dueño", "la junta", "partner", "boss", "decision maker",
			},
			"feature_gaps": {
				"no tiene", "falta", "no incluye", "limitado", "no hace",
				"missing", "lacks", "doesn't have",
			},
			"implementation_doubts": {
				"implementar", "instalar", "configurar", "migrar", "cuánto tiempo",
				"difícil de usar", "setup", "implementation", "migrate",
			},
			"support_concerns": {
				"soporte", "ayuda", "atención", "respuesta", "capacitación",
				"support", "help", "service",
			},
			"urgency_pushback": {
				"no hay prisa", "sin apuro", "el próximo mes", "el año que viene",
				"no es urgente", "no rush", "next month", "next year",
			},
			"compatibility_concerns": {
				"compatible", "integra", "funciona con", "mi sistema", "mi software",
				"works with", "integrates",
			},
		},
		SignalCategories: map[string][]string{
			"price_mentions":         {"price", "value"},
			"hesitation_words":       {"need", "urgency"},
			"uncertainty_phrases":    {"trust", "need"},
			"comparison_phrases":     {"competition", "features", "value"},
			"trust_concerns":         {"trust"},
			"authority_references":   {"authority"},
			"feature_gaps":           {"features", "compatibility"},
			"implementation_doubts":  {"implementation", "support"},
			"support_concerns":       {"support"},
			"urgency_pushback":       {"urgency"},
			"compatibility_concerns": {"compatibility"},
		},
		ProfileAdjustments: map[string]map[string]float64{
			"industry:finance":       {"trust": 0.2, "compatibility": 0.2, "price": -0.1},
			"industry:healthcare":    {"trust": 0.2, "implementation": 0.1},
			"segment:price_sensitive": {"price": 0.2, "value": 0.1},
			"segment:premium":        {"price": -0.1, "features": 0.1},
			"company_size:small":     {"price": 0.1, "implementation": 0.1},
			"company_size:large":     {"authority": 0.2, "compatibility": 0.1},
		},
		Responses: map[string][]string{
			"price": {
				"Entiendo que el precio es importante. Consideremos el retorno: la retención de un solo cliente al mes ya cubre la cuota.",
				"Tenemos planes flexibles que se ajustan a gimnasios de tu tamaño, ¿quieres ver las opciones?",
			},
			"value": {
				"Déjame mostrarte resultados de negocios como el tuyo: en promedio recuperan la inversión en el segundo mes.",
			},
			"need": {
				"¿Cuál es hoy tu mayor fuga de clientes? Así te muestro exactamente dónde impacta la plataforma.",
			},
			"urgency": {
				"Sin presión. Ten en cuenta que cada mes sin seguimiento automatizado son clientes que no vuelven.",
			},
			"authority": {
				"Puedo preparar un resumen ejecutivo para compartir con tu socio, ¿te sirve?",
			},
			"trust": {
				"Te comparto casos y testimonios verificables de clientes actuales, y la garantía de cancelación sin costo.",
			},
			"competition": {
				"Buena pregunta. La diferencia clave está en la predicción de abandono, que otras plataformas no incluyen.",
			},
			"features": {
				"Cuéntame qué funcionalidad te falta y te muestro cómo la cubrimos o qué hay en el roadmap.",
			},
			"implementation": {
				"La puesta en marcha toma menos de una semana y nuestro equipo hace la migración por ti.",
			},
			"support": {
				"Tienes soporte en español por chat y teléfono, con respuesta en menos de dos horas.",
			},
			"compatibility": {
				"Nos integramos con los sistemas de gestión más usados; dime cuál usas y lo verificamos ahora.",
			},
		},
	}
}

func defaultNeedsRules() NeedsRules {
	return NeedsRules{
		ConfidenceThreshold: 0.6,
		ContextWindow:       10,
		SignalWeights: map[string]float64{
			"information_seeking": 0.3,
			"pricing_interest":    0.35,
			"feature_interest":    0.3,
			"support_interest":    0.25,
			"customization_asks":  0.25,
			"integration_asks":    0.25,
			"training_asks":       0.2,
			"comparison_research": 0.25,
			"technical_depth":     0.25,
			"proof_seeking":       0.25,
		},
		SignalKeywords: map[string][]string{
			"information_seeking": {
				"información", "detalles", "cómo funciona", "explicar", "saber más",
				"more info", "details", "how does it work",
			},
			"pricing_interest": {
				"precio", "costo", "planes", "tarifa", "cuánto cuesta", "mensualidad",
				"pricing", "plans", "how much",
			},
			"feature_interest": {
				"funciones", "funcionalidad", "características", "qué incluye",
				"features", "what's included",
			},
			"support_interest": {
				"soporte", "ayuda", "acompañamiento", "atención", "support", "help",
			},
			"customization_asks": {
				"personalizar", "personalizado", "a medida", "adaptar",
				"customize", "custom", "tailor",
			},
			"integration_asks": {
				"integración", "integrar", "conectar", "api", "sincronizar",
				"integrate", "connect",
			},
			"training_asks": {
				"capacitación", "entrenamiento", "aprender", "tutorial", "onboarding",
				"training", "learn",
			},
			"comparison_research": {
				"comparar", "diferencia", "versus", "vs", "alternativas",
				"compare", "difference", "alternatives",
			},
			"technical_depth": {
				"técnico", "arquitectura", "seguridad", "datos", "api", "rendimiento",
				"technical", "security", "performance",
			},
			"proof_seeking": {
				"casos", "ejemplos", "resultados", "testimonios", "referencias",
				"case study", "examples", "results",
			},
		},
		SignalCategories: map[string][]string{
			"information_seeking": {"information"},
			"pricing_interest":    {"pricing"},
			"feature_interest":    {"features"},
			"support_interest":    {"support"},
			"customization_asks":  {"customization"},
			"integration_asks":    {"integration", "technical_details"},
			"training_asks":       {"training"},
			"comparison_research": {"comparison", "alternatives"},
			"technical_depth":     {"technical_details"},
			"proof_seeking":       {"case_studies"},
		},
		RequestPhrases: []string{
			"necesito", "quiero", "busco", "me interesa", "requiero", "quisiera",
			"i need", "i want", "i'm looking for", "i'd like",
		},
		RequestWeight: 0.3,
		EntityWeight:  0.2,
		// The bundled prose extractor emits only PERSON and GPE; the
		// remaining labels fire when a richer extractor is plugged in.
		EntityCategories: map[string][]string{
			"PERSON":  {"information"},
			"GPE":     {"information"},
			"PRODUCT": {"features", "information"},
			"ORG":     {"comparison", "alternatives"},
			"MONEY":   {"pricing"},
		},
		ProfileAdjustments: map[string]map[string]float64{
			"industry:finance":    {"technical_details": 0.2, "integration": 0.1},
			"segment:premium":     {"customization": 0.2, "case_studies": 0.1},
			"company_size:large":  {"integration": 0.2, "training": 0.1},
			"company_size:small":  {"pricing": 0.1, "support": 0.1},
		},
		Actions: map[string][]string{
			"information":       {"Enviar resumen de la plataforma y video demo de 3 minutos."},
			"pricing":           {"Compartir la tabla de planes y armar una cotización a medida."},
			"features":          {"Hacer demo enfocada en las funcionalidades mencionadas."},
			"support":           {"Explicar niveles de soporte y tiempos de respuesta."},
			"customization":     {"Relevar requisitos y proponer configuración personalizada."},
			"integration":       {"Confirmar compatibilidad con el software de gestión actual."},
			"training":          {"Ofrecer sesión de onboarding guiada para el equipo."},
			"comparison":        {"Enviar comparativa objetiva frente a las alternativas mencionadas."},
			"technical_details": {"Agendar llamada con el equipo técnico."},
			"case_studies":      {"Compartir dos casos de gimnasios del mismo tamaño."},
			"alternatives":      {"Destacar diferenciales frente a las opciones evaluadas."},
		},
	}
}

func defaultConversionRules() ConversionRules {
	return ConversionRules{
		ContextWindow: 10,
		SignalWeights: map[string]float64{
			"buying_signals":     0.3,
			"engagement_level":   0.15,
			"question_frequency": 0.1,
			"positive_sentiment": 0.2,
			"specific_inquiries": 0.15,
			"time_investment":    0.1,
		},
		BuyingKeywords: []string{
			"comprar", "contratar", "empezar", "comenzar", "cuándo podemos",
			"me convence", "adelante", "dónde firmo", "lo quiero", "suscribir",
			"buy", "sign up", "get started", "let's do it",
		},
		InquiryKeywords: []string{
			"cuánto cuesta", "qué planes", "formas de pago", "contrato",
			"cuándo", "implementación", "prueba gratis", "trial", "payment",
			"how soon", "onboarding",
		},
		HighThreshold:   0.8,
		MediumThreshold: 0.3,

		ExistingCustomerBonus:     0.1,
		PremiumSegmentBonus:       0.05,
		PriceSensitivePenalty:     0.05,
		FrequentInteractionsBonus: 0.05,

		CategoryRecommendations: map[string][]Recommendation{
			"high": {
				{Action: "propose_close", Priority: "high", Description: "Proponer cierre: enviar contrato y condiciones hoy mismo."},
				{Action: "create_urgency", Priority: "medium", Description: "Ofrecer incentivo por activación esta semana."},
			},
			"medium": {
				{Action: "schedule_demo", Priority: "high", Description: "Agendar demo personalizada con datos del negocio."},
				{Action: "send_case_study", Priority: "medium", Description: "Enviar caso de éxito de un negocio comparable."},
			},
			"low": {
				{Action: "build_value", Priority: "medium", Description: "Reforzar el valor: cuantificar la pérdida actual de clientes."},
				{Action: "nurture", Priority: "low", Description: "Sumar al flujo de contenido educativo y reconectar en una semana."},
			},
		},
		DeficiencyTriggers: []DeficiencyTrigger{
			{
				Signal: "engagement_level",
				Below:  0.3,
				Recommendation: Recommendation{
					Action: "ask_open_questions", Priority: "high",
					Description: "Hacer preguntas abiertas para reactivar la conversación.",
				},
			},
			{
				Signal: "positive_sentiment",
				Below:  0.2,
				Recommendation: Recommendation{
					Action: "address_concerns", Priority: "high",
					Description: "Explorar y atender las preocupaciones antes de avanzar.",
				},
			},
			{
				Signal: "specific_inquiries",
				Below:  0.1,
				Recommendation: Recommendation{
					Action: "surface_next_steps", Priority: "medium",
					Description: "Presentar pasos concretos: precios, prueba y plazos.",
				},
			},
		},
	}
}

func defaultFallbackRules() FallbackRules {
	return FallbackRules{
		ObjectionThreshold: 0.5,
		NeedThreshold:      0.4,
		Objections: map[string]KeywordRule{
			"price": {
				Keywords: []string{"caro", "precio", "costo", "mucho", "presupuesto", "$", "expensive"},
				Weight:   3.0,
				Response: "Entiendo la preocupación por el precio. Veamos el retorno que obtienen negocios similares.",
			},
			"trust": {
				Keywords: []string{"garantía", "seguro", "riesgo", "estafa", "confianza", "trust"},
				Weight:   2.5,
				Response: "Te comparto referencias verificables y nuestra garantía de cancelación sin costo.",
			},
			"urgency": {
				Keywords: []string{"después", "luego", "más adelante", "no hay prisa", "later"},
				Weight:   2.0,
				Response: "Sin presión. Solo considera el costo de cada mes sin seguimiento automatizado.",
			},
			"authority": {
				Keywords: []string{"socio", "jefe", "consultar", "junta", "partner", "boss"},
				Weight:   2.0,
				Response: "Puedo preparar un resumen ejecutivo para quien toma la decisión.",
			},
			"need": {
				Keywords: []string{"no necesito", "no me hace falta", "ya tengo", "don't need"},
				Weight:   2.5,
				Response: "¿Qué estás usando hoy? Quizás haya una fuga de clientes que no estás viendo.",
			},
		},
		Needs: map[string]KeywordRule{
			"pricing": {
				Keywords: []string{"precio", "costo", "planes", "cuánto", "pricing"},
				Weight:   3.0,
				Response: "Compartir tabla de planes y cotización.",
			},
			"information": {
				Keywords: []string{"información", "cómo funciona", "detalles", "saber más", "details"},
				Weight:   2.5,
				Response: "Enviar resumen y video demo.",
			},
			"features": {
				Keywords: []string{"funciones", "características", "incluye", "features"},
				Weight:   2.5,
				Response: "Hacer demo de funcionalidades.",
			},
			"support": {
				Keywords: []string{"soporte", "ayuda", "atención", "support"},
				Weight:   2.0,
				Response: "Explicar el modelo de soporte.",
			},
		},
		Conversion: FallbackConversionRules{
			PositiveKeywords: []string{
				"me interesa", "me gusta", "excelente", "perfecto", "genial",
				"quiero", "comprar", "empezar", "adelante", "great", "interested",
			},
			NegativeKeywords: []string{
				"caro", "no me interesa", "no gracias", "dudo", "no estoy seguro",
				"después", "not interested", "too expensive",
			},
			MediumKeywords: []string{
				"tal vez", "puede ser", "lo pensaré", "veremos", "maybe",
			},
			HighThreshold:   0.7,
			MediumThreshold: 0.4,
			Recommendations: map[string][]Recommendation{
				"high": {
					{Action: "propose_close", Priority: "high", Description: "Proponer cierre directo."},
				},
				"medium": {
					{Action: "schedule_demo", Priority: "high", Description: "Agendar demo para resolver dudas."},
					{Action: "send_case_study", Priority: "medium", Description: "Enviar caso de éxito."},
				},
				"low": {
					{Action: "build_value", Priority: "medium", Description: "Reforzar propuesta de valor."},
				},
			},
		},
	}
}
