package personalize

import "github.com/Domenick1991/healthtrip/internal/domain"

type variantPair struct {
	a, b string
}

// quotePending takes name and treatment.
var quotePending = map[string]variantPair{
	"tr": {
		a: "Sayın %s, %s teklifinizi değerlendirmek için bekliyoruz. Sorularınız için her zaman buradayız.",
		b: "Sayın %s, %s teklifinizi değerlendirmek için bekliyoruz. Hala ilgileniyor musunuz? Size özel hazırladığımız bu teklifi kaçırmayın!",
	},
	"en": {
		a: "Dear %s, we are waiting for you to review your %s quote. We are always here for your questions.",
		b: "Dear %s, we are waiting for you to review your %s quote. Are you still interested? Don't miss this special offer we've prepared for you!",
	},
	"ar": {
		a: "عزيزي %s، نحن في انتظارك لمراجعة عرض %s الخاص بك. نحن دائماً هنا للإجابة على أسئلتك.",
		b: "عزيزي %s، نحن في انتظارك لمراجعة عرض %s الخاص بك. هل ما زلت مهتماً؟ لا تفوت هذه العروض الخاصة التي أعددناها لك!",
	},
	"de": {
		a: "Sehr geehrter %s, wir warten darauf, dass Sie Ihr %s-Angebot prüfen. Wir sind immer für Ihre Fragen da.",
		b: "Sehr geehrter %s, wir warten darauf, dass Sie Ihr %s-Angebot prüfen. Sind Sie noch interessiert? Verpassen Sie nicht dieses spezielle Angebot, das wir für Sie vorbereitet haben!",
	},
}

// quoteExpiring takes name, treatment and reference number.
var quoteExpiring = map[string]variantPair{
	"tr": {
		a: "Sayın %s, %s teklifinizin (No: %s) süresi yakında dolacak. Değerlendirmek için zamanınız kalmışken bize ulaşabilirsiniz.",
		b: "Sayın %s, %s teklifinizin (No: %s) süresi yakında dolacak! Hemen değerlendirin ve özel fiyat avantajından yararlanın.",
	},
	"en": {
		a: "Dear %s, your %s quote (No: %s) will expire soon. You can contact us while you still have time to review.",
		b: "Dear %s, your %s quote (No: %s) will expire soon! Review it immediately and take advantage of the special price.",
	},
	"ar": {
		a: "عزيزي %s، ستنتهي صلاحية عرض %s الخاص بك (رقم: %s) قريباً. يمكنك الاتصال بنا بينما لا يزال لديك وقت للمراجعة.",
		b: "عزيزي %s، ستنتهي صلاحية عرض %s الخاص بك (رقم: %s) قريباً! راجعه فوراً واستفد من السعر الخاص.",
	},
	"de": {
		a: "Sehr geehrter %s, Ihr %s-Angebot (Nr: %s) läuft bald ab. Sie können uns kontaktieren, solange Sie noch Zeit zur Prüfung haben.",
		b: "Sehr geehrter %s, Ihr %s-Angebot (Nr: %s) läuft bald ab! Prüfen Sie es sofort und nutzen Sie den Sonderpreis.",
	},
}

// leadFollowUp takes name.
var leadFollowUp = map[string]string{
	"tr": "Sayın %s, size nasıl yardımcı olabiliriz? Sağlık yolculuğunuz için sorularınız varsa, bizimle iletişime geçmekten çekinmeyin.",
	"en": "Dear %s, how can we help you? If you have any questions about your health journey, please don't hesitate to contact us.",
	"ar": "عزيزي %s، كيف يمكننا مساعدتك؟ إذا كان لديك أي أسئلة حول رحلتك الصحية، لا تتردد في الاتصال بنا.",
	"de": "Sehr geehrter %s, wie können wir Ihnen helfen? Wenn Sie Fragen zu Ihrer Gesundheitsreise haben, zögern Sie bitte nicht, uns zu kontaktieren.",
}

var subjects = map[string]map[domain.ReminderType]string{
	"tr": {
		domain.ReminderQuotePending:  "%s Bey/Hanım, Teklifinizi Değerlendirmeyi Unutmayın",
		domain.ReminderQuoteExpiring: "%s Bey/Hanım, Teklifinizin Süresi Dolmak Üzere",
		domain.ReminderLeadFollowUp:  "%s Bey/Hanım, Size Nasıl Yardımcı Olabiliriz?",
	},
	"en": {
		domain.ReminderQuotePending:  "Dear %s, Don't Forget to Review Your Quote",
		domain.ReminderQuoteExpiring: "Dear %s, Your Quote is About to Expire",
		domain.ReminderLeadFollowUp:  "Dear %s, How Can We Help You?",
	},
	"ar": {
		domain.ReminderQuotePending:  "عزيزي %s، لا تنس مراجعة عرضك",
		domain.ReminderQuoteExpiring: "عزيزي %s، عرضك على وشك الانتهاء",
		domain.ReminderLeadFollowUp:  "عزيزي %s، كيف يمكننا مساعدتك؟",
	},
	"de": {
		domain.ReminderQuotePending:  "Sehr geehrter %s, vergessen Sie nicht, Ihr Angebot zu prüfen",
		domain.ReminderQuoteExpiring: "Sehr geehrter %s, Ihr Angebot läuft bald ab",
		domain.ReminderLeadFollowUp:  "Sehr geehrter %s, wie können wir Ihnen helfen?",
	},
}

var defaultNames = map[string]string{
	"tr": "Değerli Müşterimiz",
	"en": "Dear Customer",
	"ar": "عميلنا العزيز",
	"de": "Lieber Kunde",
}

var defaultTreatments = map[string]string{
	"tr": "tedavi",
	"en": "treatment",
	"ar": "العلاج",
	"de": "Behandlung",
}

var defaultMessages = map[string]string{
	"tr": "Size nasıl yardımcı olabiliriz?",
	"en": "How can we help you?",
	"ar": "كيف يمكننا مساعدتك؟",
	"de": "Wie können wir Ihnen helfen?",
}
