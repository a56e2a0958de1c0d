package service

// SampleCSVFilename is the download name offered for the batch template.
const SampleCSVFilename = "sample_patients.csv"

// SampleCSV is the fixed template file offered to hospitals to illustrate the
// expected input columns. Downloading it performs no validation.
const SampleCSV = `age,sex,height,weight,systolic,diastolic,total_cholesterol,hdl,fasting_blood_sugar,smoking,diabetes,family_history,physical_activity,abdominal_circumference
55,male,175,82,140,90,235,38,118,yes,no,yes,low,102
42,female,165,68,120,80,182,55,88,no,no,no,moderate,78
68,male,172,90,150,95,260,35,132,yes,yes,yes,low,110
35,female,168,65,110,75,170,60,82,no,no,no,high,72`
