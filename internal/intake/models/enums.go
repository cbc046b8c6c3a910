package models

var Genders = []string{"Male", "Female", "Other"}

var InternshipTopics = []string{
	"Web Development",
	"Mobile App Development",
	"Data Science",
	"Machine Learning",
	"Cloud Computing",
	"Cyber Security",
	"Database Management",
	"Software Testing",
	"UI/UX Design",
	"Digital Marketing",
	"Python Programming",
	"Java Programming",
	"C/C++ Programming",
	"Artificial Intelligence",
	"Internet of Things (IoT)",
}

var Courses = []string{
	"B.Sc", "B.A", "B.Com", "BCA", "BBA", "B.Tech",
	"M.Sc", "M.A", "M.Com", "MCA", OtherOption,
}

var Colleges = []string{
	"A.N. College, Patna",
	"Patna Science College",
	"Patna Women's College",
	"B.N. College, Patna",
	"Magadh Mahila College",
	"College of Commerce, Patna",
	"Vanijya Mahavidyalaya",
	"L.N. Mishra College of Business Management",
	"J.D. Women's College",
	"Ram Lakhan Singh Yadav College",
	"Patliputra University (Main Campus)",
	OtherOption,
}

var HonoursSubjects = []string{
	"Computer Science",
	"Information Technology",
	"Computer Application (BCA)",
	"Electronics",
	"Mathematics",
	"Physics",
	"Chemistry",
	"Statistics",
	"Economics",
	"Commerce",
	"Management",
	OtherOption,
}

var Semesters = []string{
	"1st Semester",
	"2nd Semester",
	"3rd Semester",
	"4th Semester",
	"5th Semester",
	"6th Semester",
	"7th Semester",
	"8th Semester",
}
