package bank

import (
	"fmt"

	"github.com/xuri/excelize/v2"

	"github.com/sanketk/quizdeck/internal/model"
)

// Columns lists the workbook header in write order, Id included.
var Columns = append([]string{"Id"}, requiredColumns...)

var sampleQuestions = []model.Question{
	{Exam: "GK", Section: "Science", Topic: "Physics", Text: "What is the SI unit of force?",
		Options: [4]string{"Joule", "Newton", "Pascal", "Watt"}, Correct: "B"},
	{Exam: "GK", Section: "Science", Topic: "Physics", Text: "In which medium does light travel fastest?",
		Options: [4]string{"Glass", "Water", "Vacuum", "Air"}, Correct: "C"},
	{Exam: "GK", Section: "Science", Topic: "Physics", Text: "What does a barometer measure?",
		Options: [4]string{"Humidity", "Temperature", "Atmospheric pressure", "Wind speed"}, Correct: "C"},
	{Exam: "GK", Section: "Science", Topic: "Chemistry", Text: "What is the chemical symbol for gold?",
		Options: [4]string{"Au", "Ag", "Gd", "Go"}, Correct: "A"},
	{Exam: "GK", Section: "Science", Topic: "Chemistry", Text: "Which gas do plants absorb during photosynthesis?",
		Options: [4]string{"Oxygen", "Nitrogen", "Carbon dioxide", "Hydrogen"}, Correct: "C"},
	{Exam: "GK", Section: "Science", Topic: "Chemistry", Text: "What is the pH of pure water?",
		Options: [4]string{"5", "7", "9", "11"}, Correct: "B"},
	{Exam: "GK", Section: "Science", Topic: "Biology", Text: "Which organ pumps blood through the human body?",
		Options: [4]string{"Liver", "Lungs", "Heart", "Kidney"}, Correct: "C"},
	{Exam: "GK", Section: "Science", Topic: "Biology", Text: "Which cell structure is known as the powerhouse of the cell?",
		Options: [4]string{"Nucleus", "Ribosome", "Mitochondrion", "Chloroplast"}, Correct: "C"},
	{Exam: "GK", Section: "History", Topic: "Ancient India", Text: "Who founded the Maurya Empire?",
		Options: [4]string{"Ashoka", "Chandragupta Maurya", "Bindusara", "Harsha"}, Correct: "B"},
	{Exam: "GK", Section: "History", Topic: "Ancient India", Text: "The Harappan civilization flourished along which river?",
		Options: [4]string{"Ganges", "Yamuna", "Indus", "Godavari"}, Correct: "C"},
	{Exam: "GK", Section: "History", Topic: "Modern India", Text: "In which year did India gain independence?",
		Options: [4]string{"1942", "1945", "1947", "1950"}, Correct: "C"},
	{Exam: "GK", Section: "History", Topic: "Modern India", Text: "Who led the Salt March of 1930?",
		Options: [4]string{"Jawaharlal Nehru", "Mahatma Gandhi", "Sardar Patel", "Subhas Chandra Bose"}, Correct: "B"},
	{Exam: "GK", Section: "Geography", Topic: "Physical", Text: "Which is the longest river in the world?",
		Options: [4]string{"Amazon", "Nile", "Yangtze", "Mississippi"}, Correct: "B"},
	{Exam: "GK", Section: "Geography", Topic: "Physical", Text: "Which mountain is the highest above sea level?",
		Options: [4]string{"K2", "Kangchenjunga", "Mount Everest", "Lhotse"}, Correct: "C"},
	{Exam: "GK", Section: "Geography", Topic: "Physical", Text: "Which is the largest hot desert?",
		Options: [4]string{"Gobi", "Kalahari", "Sahara", "Thar"}, Correct: "C"},
	{Exam: "GK", Section: "Geography", Topic: "World", Text: "What is the capital of Australia?",
		Options: [4]string{"Sydney", "Melbourne", "Canberra", "Perth"}, Correct: "C"},
	{Exam: "GK", Section: "Geography", Topic: "World", Text: "Which ocean is the largest by area?",
		Options: [4]string{"Atlantic", "Indian", "Arctic", "Pacific"}, Correct: "D"},
	{Exam: "Aptitude", Section: "Mathematics", Topic: "Arithmetic", Text: "What is 15% of 200?",
		Options: [4]string{"25", "30", "35", "40"}, Correct: "B"},
	{Exam: "Aptitude", Section: "Mathematics", Topic: "Arithmetic", Text: "What is the least common multiple of 4 and 6?",
		Options: [4]string{"10", "12", "18", "24"}, Correct: "B"},
	{Exam: "Aptitude", Section: "Mathematics", Topic: "Algebra", Text: "If 2x + 3 = 11, what is x?",
		Options: [4]string{"3", "4", "5", "6"}, Correct: "B"},
}

// WriteSample writes a starter question bank workbook so a fresh install has
// something to quiz on.
func WriteSample(path string) error {
	f := excelize.NewFile()
	defer f.Close()
	sheet := f.GetSheetName(0)

	header := make([]interface{}, len(Columns))
	for i, name := range Columns {
		header[i] = name
	}
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return fmt.Errorf("writing sample bank header: %w", err)
	}
	for i, q := range sampleQuestions {
		row := []interface{}{
			i + 1, q.Exam, q.Section, q.Topic, q.Text,
			q.Options[0], q.Options[1], q.Options[2], q.Options[3],
			q.Correct,
		}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return fmt.Errorf("writing sample bank: %w", err)
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return fmt.Errorf("writing sample bank row %d: %w", i+2, err)
		}
	}
	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("saving sample bank: %w", err)
	}
	return nil
}
