package service

import "time"

type Thought struct {
	Text   string
	Author string
}

var dailyThoughts = []Thought{
	{Text: "जिंकण्याची इच्छा असलेल्या माणसाला कोणीही पराभूत करू शकत नाही.", Author: "छत्रपती शिवाजी महाराज"},
	{Text: "शिक्षण हे समाजाचे आधारस्तंभ आहेत आणि ते समाजातील प्रत्येक व्यक्तीपर्यंत पोहोचले पाहिजे.", Author: "डॉ. बाबासाहेब आंबेडकर"},
	{Text: "स्वातंत्र्य हा आपला जन्मसिद्ध हक्क आहे आणि आपण तो मिळवणारच.", Author: "लोकमान्य टिळक"},
	{Text: "कष्टाचे फळ गोड असते, ते मिळवण्यासाठी कष्ट करणे आवश्यक आहे.", Author: "लालबहादूर शास्त्री"},
}

var newsHeadlines = []string{
	"महाराष्ट्र पोलिस भरती २०२३: ५००० जागांसाठी अधिसूचना जारी",
	"पोलिस भरती परीक्षेच्या तयारीसाठी मार्गदर्शक कार्यशाळा आयोजित",
	"महाराष्ट्र सरकारमध्ये नवीन पोलिस भरती प्रक्रिया सुरू",
	"पोलिस भरतीसाठी ऑनलाइन अर्ज प्रक्रिया सुरू",
}

// ThoughtOfDay меняется раз в сутки по номеру дня в году.
func ThoughtOfDay(now time.Time) Thought {
	return dailyThoughts[now.YearDay()%len(dailyThoughts)]
}

// HeadlineOfDay меняется по числу месяца.
func HeadlineOfDay(now time.Time) string {
	return newsHeadlines[now.Day()%len(newsHeadlines)]
}
