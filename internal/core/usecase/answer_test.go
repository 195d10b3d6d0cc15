package usecase

import (
	"strings"
	"testing"

	"github.com/kirillkom/masters-advisor/internal/core/domain"
)

func TestBuildAnswerEmptyInput(t *testing.T) {
	got := BuildAnswer("что угодно", nil)
	if got != noCandidatesAnswer {
		t.Fatalf("expected no-candidates sentence, got %q", got)
	}
}

func TestBuildAnswerCost(t *testing.T) {
	facts := "Стоимость: 599 000 ₽ в год; Срок обучения: 2 года"

	cases := []struct {
		name string
		meta domain.DocumentMeta
		want string
	}{
		{
			name: "title and url",
			meta: aiMeta(domain.SectionFacts),
			want: "Стоимость обучения по программе «Искусственный интеллект»: 599 000 ₽ в год. Подробнее — https://abit.itmo.ru/program/master/ai.",
		},
		{
			name: "title only",
			meta: domain.DocumentMeta{ProgramTitle: "AI Product", Section: domain.SectionFacts},
			want: "Стоимость обучения по программе «AI Product»: 599 000 ₽ в год.",
		},
		{
			name: "no identity",
			meta: domain.DocumentMeta{Section: domain.SectionFacts},
			want: facts,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := BuildAnswer("Сколько стоит обучение?", []domain.ScoredDocument{scored("f", facts, tc.meta, 1)})
			if got != tc.want {
				t.Fatalf("unexpected answer:\n got %q\nwant %q", got, tc.want)
			}
		})
	}
}

func TestBuildAnswerCostWithoutMonetaryFactsFallsThrough(t *testing.T) {
	docs := []domain.ScoredDocument{
		scored("f", "Срок обучения: 2 года", aiMeta(domain.SectionFacts), 0.9),
	}
	got, intent := synthesize("какая цена", docs)
	if intent != domain.IntentGeneric {
		t.Fatalf("expected generic intent, got %s (%q)", intent, got)
	}
	if !strings.HasPrefix(got, "По материалам программы «Искусственный интеллект»: Срок обучения: 2 года.") {
		t.Fatalf("unexpected generic answer %q", got)
	}
}

func TestBuildAnswerStaffing(t *testing.T) {
	docs := []domain.ScoredDocument{
		scored("d", "Программа готовит ML-инженеров", aiMeta(domain.SectionDescription), 0.5),
	}
	got, intent := synthesize("Кто ведёт курсы?", docs)
	if intent != domain.IntentStaffing {
		t.Fatalf("expected staffing intent, got %s", intent)
	}
	want := noStaffListAnswer + " Актуальную информацию обычно публикуют на странице программы «Искусственный интеллект»: https://abit.itmo.ru/program/master/ai."
	if got != want {
		t.Fatalf("unexpected answer %q", got)
	}

	got = BuildAnswer("кто преподаватели", []domain.ScoredDocument{scored("d", "текст", domain.DocumentMeta{}, 0.5)})
	if got != noStaffListAnswer+" Посмотрите страницу программы или уточните вопрос." {
		t.Fatalf("unexpected anonymous staffing answer %q", got)
	}
}

func TestBuildAnswerStaffingFallsThroughWhenStaffMentioned(t *testing.T) {
	docs := []domain.ScoredDocument{
		scored("d", "Лекторы — практикующие инженеры", aiMeta(domain.SectionDescription), 0.5),
	}
	_, intent := synthesize("кто читает лекции", docs)
	if intent == domain.IntentStaffing {
		t.Fatalf("staffing template must not be used when documents mention staff")
	}
}

func TestBuildAnswerCourseListing(t *testing.T) {
	meta := aiMeta(domain.SectionCourse)
	docs := []domain.ScoredDocument{
		scored("c0", "Обязательные дисциплины | тип: блок", meta, 0.9),
		scored("c1", "Машинное обучение | тип: core | семестр: 1", meta, 0.8),
		scored("c2", "Глубокое обучение | семестр: 2", meta, 0.7),
		scored("c3", "Машинное обучение | тип: elective", meta, 0.6),
		scored("c4", "Практика. 3 семестр", meta, 0.5),
	}
	got, intent := synthesize("какие курсы есть", docs)
	if intent != domain.IntentCourseList {
		t.Fatalf("expected course listing, got %s", intent)
	}
	want := "По учебному плану программы «Искусственный интеллект» вам могут быть полезны дисциплины: Машинное обучение, Глубокое обучение. Полный список и описание — на странице программы: https://abit.itmo.ru/program/master/ai."
	if got != want {
		t.Fatalf("unexpected answer:\n got %q\nwant %q", got, want)
	}
}

func TestBuildAnswerCourseListingLimit(t *testing.T) {
	meta := domain.DocumentMeta{Section: domain.SectionCourse}
	var docs []domain.ScoredDocument
	for _, name := range []string{"Курс А", "Курс Б", "Курс В", "Курс Г", "Курс Д", "Курс Е"} {
		docs = append(docs, scored(name, name, meta, 0.5))
	}
	got := BuildAnswer("курсы", docs)
	if got != "Среди подходящих курсов: Курс А, Курс Б, Курс В, Курс Г, Курс Д." {
		t.Fatalf("unexpected answer %q", got)
	}
}

func TestBuildAnswerGeneric(t *testing.T) {
	docs := []domain.ScoredDocument{
		scored("d1", "Программа длится два года.", aiMeta(domain.SectionDescription), 0.9),
		scored("d2", "Программа длится два года.", aiMeta(domain.SectionDescription), 0.8),
		scored("d3", "  ", aiMeta(domain.SectionDescription), 0.7),
		scored("d4", "Обучение очное", aiMeta(domain.SectionDescription), 0.6),
	}
	got := BuildAnswer("расскажи о программе", docs)
	want := "По материалам программы «Искусственный интеллект»: Программа длится два года. Обучение очное. Подробнее — https://abit.itmo.ru/program/master/ai."
	if got != want {
		t.Fatalf("unexpected answer:\n got %q\nwant %q", got, want)
	}

	plain := BuildAnswer("вопрос", []domain.ScoredDocument{scored("d", "Текст без программы", domain.DocumentMeta{}, 0.3)})
	if plain != "Текст без программы" {
		t.Fatalf("expected bare body, got %q", plain)
	}
}

func TestBuildAnswerBlankTexts(t *testing.T) {
	got := BuildAnswer("вопрос", []domain.ScoredDocument{scored("d", "   ", domain.DocumentMeta{}, 0.3)})
	if got != noMaterialAnswer {
		t.Fatalf("expected no-material sentence, got %q", got)
	}
}
