package catalog

import "github.com/comate/comate/internal/model"

// DefaultQuestions is the quiz served when no catalog has been stored
var DefaultQuestions = []model.Question{
	{
		ShortID: "celebrity",
		Text:    "Aşağıdakilerden hangisine kendini daha yakın hissediyorsun?",
		Options: []string{"Sedat Peker", "Acun Ilıcalı", "Serdar Ortaç", "Mehmet Şef", "Seda Sayan", "Sinan Engin"},
	},
	{
		ShortID: "ex_code",
		Text:    "Exine hangi kod dilini öğrenmek zorunda bırakırdın?",
		Options: []string{"Assembly", "C", "Java", "Python", "Prolog"},
	},
	{
		ShortID: "photo_with",
		Text:    "Kimle fotoğraf çekinmek isterdin?",
		Options: []string{"Mükremin", "Yakışıklı Güvenlik", "Ömer Kocaman", "Yılmaz Ar", "Enes Batur"},
	},
	{
		ShortID: "scroll_time",
		Text:    "Günde Kaç saat Kaydırıyorsun?",
		Options: []string{"0-1", "1-3", "3-6", "6-12", "Ben Hayatsızım"},
	},
	{
		ShortID: "fav_avm",
		Text:    "Favori AVM?",
		Options: []string{"Kızılay Avm", "Ankamall", "Kentpark", "Taurus", "Metromall", "Armada"},
	},
	{
		ShortID: "assembly_date",
		Text:    "Sevgilinin Assembly ile kod yazdığını gördün nasıl tepki verirsin?",
		Options: []string{"Ayrılırım", "Hayatımın aşkı olduğuna karar veririm", "Dertlenirim", "Her yerden engellerim", "Assembly ne yeniyor mu", "Sevgili buldum bir de onu mu dert etcem"},
	},
	{
		ShortID: "fav_chips",
		Text:    "Favori Cipsin nedir?",
		Options: []string{"Lays", "Çerezza", "Ruffles", "Doritos", "Patos", "Diğer"},
	},
	{
		ShortID: "monster_bag",
		Text:    "Sırt çantan Monster mı?",
		Options: []string{"Evet", "Hayır"},
	},
	{
		ShortID: "fav_hobby",
		Text:    "Aşağıdakilerden hangisi en çok değer verdiğin hobindir?",
		Options: []string{"Spor yapmak", "Kod yazmak", "Oyun oynamak", "Uyumak", "Reels kaydırmak", "Müzik", "Resim", "Dizi/Film/Anime izlemek", "Hobim yok"},
	},
}
