package triage

// messages is the complete set of fixed fragments for one language.
type messages struct {
	dir            string
	emergency      string
	detected       string
	listSeparator  string
	conditions     string
	scoreLabel     string
	recommendation string
	unknown        string
	noSymptoms     string
	disclaimer     string
}

var catalog = map[Language]messages{
	English: {
		dir:            "ltr",
		emergency:      "🚨 Emergency: your symptoms may indicate a serious condition. Call your local emergency number or go to the nearest emergency department now.",
		detected:       "I understand you have ",
		listSeparator:  ", ",
		conditions:     "Based on your symptoms, the most likely possibilities are:",
		scoreLabel:     "score",
		recommendation: "💡 Recommendation: ",
		unknown:        "I'm sorry, I don't recognize those symptoms.",
		noSymptoms:     "I'm sorry, I didn't recognize any symptoms in your description.",
		disclaimer:     "⚠️ Remember, I am just a chatbot and cannot provide definitive medical advice. Please consult a doctor for proper diagnosis and treatment.",
	},
	Arabic: {
		dir:            "rtl",
		emergency:      "🚨 حالة طارئة: قد تشير أعراضك إلى حالة خطيرة. اتصل برقم الطوارئ المحلي أو توجه إلى أقرب قسم طوارئ فورًا.",
		detected:       "فهمت أنك تعاني من: ",
		listSeparator:  "، ",
		conditions:     "بناءً على أعراضك، أكثر الاحتمالات ترجيحًا هي:",
		scoreLabel:     "الدرجة",
		recommendation: "💡 التوصية: ",
		unknown:        "عذرًا، لم أتعرف على هذه الأعراض.",
		noSymptoms:     "عذرًا، لم أتعرف على أي أعراض في وصفك.",
		disclaimer:     "⚠️ تذكر أنني مجرد روبوت محادثة ولا يمكنني تقديم نصيحة طبية نهائية. يرجى استشارة الطبيب للتشخيص والعلاج المناسبين.",
	},
}

func messagesFor(lang Language) messages {
	if m, ok := catalog[lang]; ok {
		return m
	}
	return catalog[English]
}
